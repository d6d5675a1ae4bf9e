package namespace

import "errors"

var (
	ErrEmptyIdent      = errors.New("namespace: identifier must have at least one segment")
	ErrDepthExceeded   = errors.New("namespace: depth exceeds MAX_NAMESPACE_DEPTH")
	ErrEmptySegment    = errors.New("namespace: segment must not be blank")
	ErrReservedProperty = errors.New("namespace: property key is reserved")
)
