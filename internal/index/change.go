package index

import "fmt"

// ChangeKind enumerates index notifications.
type ChangeKind uint8

// Notification kinds.
const (
	// Reset means the whole row set was replaced.
	Reset ChangeKind = iota
	RowInserted
	RowRemoved
	RowUpdated
)

func (k ChangeKind) String() string {
	switch k {
	case Reset:
		return "reset"
	case RowInserted:
		return "inserted"
	case RowRemoved:
		return "removed"
	case RowUpdated:
		return "updated"
	default:
		return fmt.Sprintf("change(%d)", uint8(k))
	}
}

// Change is one index notification. Row is unused for Reset.
type Change struct {
	Kind ChangeKind
	Row  int
}

func (c Change) String() string {
	if c.Kind == Reset {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", c.Kind, c.Row)
}

// Listener receives index notifications synchronously, after the index
// has been updated.
type Listener func(Change)
