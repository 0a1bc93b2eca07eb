package column

import "strings"

var escaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

// Escape replaces newline, carriage return and tab with their two-character
// escapes. Everything else, backslashes included, passes through.
func Escape(s string) string {
	return escaper.Replace(s)
}
