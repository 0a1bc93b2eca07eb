package document

import (
	"context"
	"fmt"
	"strings"
)

// EditOp is a structural edit kind.
type EditOp string

// Edit operations.
const (
	EditInsert EditOp = "insert"
	EditRemove EditOp = "remove"
	EditChange EditOp = "change"
)

// ParseEditOp validates an edit operation name.
func ParseEditOp(s string) (EditOp, error) {
	switch op := EditOp(strings.ToLower(strings.TrimSpace(s))); op {
	case EditInsert, EditRemove, EditChange:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEdit, s)
}

// Edit is one replayable structural mutation.
type Edit struct {
	Op   EditOp
	Item Item
}

func (e Edit) String() string {
	return string(e.Op) + " " + e.Item.String()
}

// Apply performs the edit.
func (d *Document) Apply(ctx context.Context, e Edit) error {
	switch e.Op {
	case EditInsert:
		return d.InsertItem(ctx, e.Item)
	case EditRemove:
		return d.RemoveItem(ctx, e.Item)
	case EditChange:
		return d.ChangeItem(ctx, e.Item)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEdit, e.Op)
	}
}
