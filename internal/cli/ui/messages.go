package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Successf prints a green success message
func Successf(w io.Writer, format string, args ...interface{}) {
	green := color.New(color.FgGreen)
	green.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Errorf prints a red error message
func Errorf(w io.Writer, format string, args ...interface{}) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprint(w, "✗ ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Warnf prints a yellow warning message
func Warnf(w io.Writer, format string, args ...interface{}) {
	yellow := color.New(color.FgYellow)
	yellow.Fprint(w, "! ")
	fmt.Fprintf(w, format+"\n", args...)
}
