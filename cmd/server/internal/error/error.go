package srverr

import "errors"

var ErrTypeAssertMismatch = errors.New("type assertion mismatch")
