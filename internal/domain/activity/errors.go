package activity

import "errors"

// DefaultListLimit applies when a list request leaves Limit unset.
const DefaultListLimit = 100

// ErrInvalidOptions indicates negative paging values.
var ErrInvalidOptions = errors.New("invalid activity list options")
