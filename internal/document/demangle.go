package document

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// DemangledName returns the human readable form of a mangled symbol name.
// Names that are not mangled, or that fail to demangle, are returned as is.
func (d *Document) DemangledName(raw string) string {
	name := raw
	// Mach-O symbols carry an extra leading underscore.
	if strings.HasPrefix(name, "__Z") {
		name = name[1:]
	}
	out, err := demangle.ToString(name, demangle.NoClones)
	if err != nil {
		return raw
	}
	return out
}
