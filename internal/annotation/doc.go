// Package annotation defines the grammar of an annotation kind: which tag
// tokens are recognized, which tag opens a new record, the cardinality of
// each tag and the comment prefixes that may precede a tag.
//
// A Config is an immutable value loaded once per scan and passed explicitly
// to the scanner and the assembler. Built-in grammars for feature toggles and
// settings are embedded; custom grammars are read from YAML files:
//
//	kind: featuretoggle
//	title: Feature Toggles
//	anchor: featuretoggle
//	comment_prefixes: ["#", "//"]
//	extensions: [py, js]
//	tags:
//	  - token: ".. toggle_name:"
//	    key: name
//	    role: name
//	  - token: ".. toggle_default:"
//	    key: default
//	    role: default
//	    required: true
//	    placeholder: Not defined
package annotation
