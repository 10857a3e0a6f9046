package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	infoFmt = color.New(color.FgYellow).SprintFunc()
	keyFmt  = color.New(color.FgCyan).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
)

// ErrorText formats err for the terminal.
func ErrorText(err error) string {
	return fmt.Sprintf("%s %v", errFmt("error:"), err)
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okFmt(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, infoFmt(fmt.Sprintf(format, args...)))
}
