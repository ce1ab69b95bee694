//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// init disables Windows console "quick edit" mode, which otherwise pauses
// the process (and its supervised JVM's stdin/stdout pump) the moment a user
// clicks into the terminal window.
func init() {
	con := windows.Handle(os.Stdin.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(con, &mode); err == nil {
		mode |= windows.ENABLE_EXTENDED_FLAGS
		mode &^= windows.ENABLE_QUICK_EDIT_MODE
		_ = windows.SetConsoleMode(con, mode)
	}
}
