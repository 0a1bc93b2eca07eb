// Package tui is an interactive terminal browser for listing views.
//
// The browser owns the document, the view models and the screen, and
// touches them only from its event loop goroutine. Work started elsewhere,
// such as replaying an edit script or reloading the configuration, is
// posted into the loop with Post.
//
// Key bindings:
//
//	Tab / Shift-Tab    next / previous view
//	Up / Down          move the cursor
//	PgUp / PgDn        move by a screen
//	Home / End         first / last row
//	q, Esc, Ctrl-C     quit
package tui
