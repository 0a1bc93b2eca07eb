// Package export writes the rows of a listing view as JSON or as an
// aligned text table.
package export
