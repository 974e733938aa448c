package assembler

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"unicode"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
)

// Assembler builds records for one grammar. It holds no per-run state and
// may be shared by concurrent callers.
type Assembler struct {
	cfg    *annotation.Config
	logger *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an Assembler for cfg.
func New(cfg *annotation.Config, opts ...Option) *Assembler {
	a := &Assembler{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// state is one of awaitingName, *inRecord, skippingDuplicate or
// skippingUnnamed.
type state interface {
	isState()
}

// awaitingName is the initial state: no record is open.
type awaitingName struct{}

// inRecord folds attributes into the open record.
type inRecord struct {
	record *model.Record
}

// skippingDuplicate drops attributes that follow a repeated name.
type skippingDuplicate struct {
	name string
}

// skippingUnnamed drops attributes that follow an empty name tag.
type skippingUnnamed struct{}

func (awaitingName) isState()      {}
func (*inRecord) isState()         {}
func (skippingDuplicate) isState() {}
func (skippingUnnamed) isState()   {}

// run is the mutable state of one Assemble call.
type run struct {
	*Assembler
	state  state
	file   string
	result *model.Result
}

// Assemble consumes seq and returns the assembled records with the
// diagnostics found on the way. Diagnostics yielded by the scanner are kept
// on the result. Any other error from seq stops assembly and is returned.
func (a *Assembler) Assemble(seq iter.Seq2[model.RawAnnotation, error]) (*model.Result, error) {
	r := &run{
		Assembler: a,
		state:     awaitingName{},
		result:    model.NewResult(a.cfg.Kind()),
	}

	for ann, err := range seq {
		if err != nil {
			var d *model.Diagnostic
			if errors.As(err, &d) {
				r.diagnose(d)
				continue
			}
			return nil, err
		}
		r.result.AnnotationsFound++
		r.step(ann)
	}
	r.closeRecord()

	return r.result, nil
}

// AssembleSlice assembles annotations that are already in memory.
func (a *Assembler) AssembleSlice(annotations []model.RawAnnotation) *model.Result {
	// The sequence never yields an error, so neither does Assemble.
	result, _ := a.Assemble(func(yield func(model.RawAnnotation, error) bool) {
		for _, ann := range annotations {
			if !yield(ann, nil) {
				return
			}
		}
	})
	return result
}

func (r *run) step(ann model.RawAnnotation) {
	if ann.File != r.file {
		r.closeRecord()
		r.file = ann.File
	}

	tag, ok := r.cfg.Tag(ann.Key)
	if !ok {
		r.logger.Debug("ignoring annotation with unknown key", "key", ann.Key, "position", ann.Position().String())
		return
	}
	if tag.IsName() {
		r.openRecord(ann)
		return
	}

	switch s := r.state.(type) {
	case awaitingName:
		r.diagnose(model.NewOrphanAttribute(ann))
	case skippingDuplicate:
		r.logger.Debug("dropping attribute of duplicate", "name", s.name, "key", ann.Key, "position", ann.Position().String())
	case skippingUnnamed:
		r.logger.Debug("dropping attribute of unnamed record", "key", ann.Key, "position", ann.Position().String())
	case *inRecord:
		r.fold(s.record, tag, ann)
	default:
		panic(fmt.Sprintf("assembler: unexpected state %T", s))
	}
}

// openRecord handles a name tag in any state.
func (r *run) openRecord(ann model.RawAnnotation) {
	r.closeRecord()

	if ann.Value == "" {
		r.diagnose(model.NewEmptyName(ann))
		r.state = skippingUnnamed{}
		return
	}

	if existing, ok := r.result.Records[ann.Value]; ok {
		r.diagnose(model.NewDuplicateName(ann, existing.Provenance))
		r.state = skippingDuplicate{name: ann.Value}
		return
	}

	rec := model.NewRecord(ann.Value, ann.Position())
	r.result.Records[rec.Name] = rec
	r.state = &inRecord{record: rec}
}

// closeRecord checks the open record, if any, and returns to awaitingName.
func (r *run) closeRecord() {
	switch s := r.state.(type) {
	case awaitingName, skippingDuplicate, skippingUnnamed:
	case *inRecord:
		for _, tag := range r.cfg.Tags() {
			if tag.Required && !s.record.Has(tag.Key) {
				r.diagnose(model.NewMissingRequiredAttribute(s.record, tag.Key))
			}
		}
	default:
		panic(fmt.Sprintf("assembler: unexpected state %T", s))
	}
	r.state = awaitingName{}
}

// fold adds an attribute to the open record.
func (r *run) fold(rec *model.Record, tag annotation.Tag, ann model.RawAnnotation) {
	if tag.Multiple {
		rec.Append(tag.Key, ann.Value)
	} else if rec.Set(tag.Key, ann.Value) {
		r.diagnose(model.NewRepeatedAttribute(ann, rec.Name))
	}

	if len(tag.Choices) == 0 {
		return
	}
	for _, choice := range SplitChoices(ann.Value) {
		if !tag.Allows(choice) && !model.IsNotApplicable(choice) {
			r.diagnose(model.NewInvalidChoice(ann, rec.Name, choice))
		}
	}
}

func (r *run) diagnose(d *model.Diagnostic) {
	r.result.AddDiagnostic(d)
	r.logger.Debug("diagnostic", "kind", d.Kind.String(), "severity", d.Severity.String(), "message", d.Error())
}

// SplitChoices splits a list value such as "temporary, open_edx" into its items.
func SplitChoices(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
