package document

import "errors"

// Errors returned by document mutations and the fixture loader.
var (
	ErrDuplicateItem     = errors.New("item already exists")
	ErrItemNotFound      = errors.New("item not found")
	ErrSegmentOverlap    = errors.New("segment overlaps an existing segment")
	ErrSegmentInvalid    = errors.New("segment end must be greater than start")
	ErrUnknownItemType   = errors.New("unknown item type")
	ErrUnknownSymbolType = errors.New("unknown symbol type")
	ErrUnknownEdit       = errors.New("unknown edit operation")
	ErrFixture           = errors.New("invalid fixture")
)
