package scanner

import "errors"

// ErrRootUnreadable is yielded, wrapped with the cause, when the root
// directory cannot be listed. It is the only error that ends a walk early.
var ErrRootUnreadable = errors.New("scan root is not readable")
