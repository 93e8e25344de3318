// Package cursor reads the global mouse cursor position.
package cursor

// Reader samples the global cursor position in virtual-screen
// coordinates.
type Reader interface {
	Position() (x, y int, err error)
}

// OS returns the platform cursor reader. On platforms without cursor
// access it returns a reader that always fails, which callers treat as
// "cursor at monitor center".
func OS() Reader {
	return osReader{}
}
