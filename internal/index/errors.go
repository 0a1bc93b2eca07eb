package index

import "errors"

var (
	// ErrIndexOutOfRange is returned by RowAt for a position outside
	// [0, RowCount()).
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrNilSource is returned by Attach without a document.
	ErrNilSource = errors.New("nil source")
)
