package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm shows a warning box on out and asks the user to type phrase.
// Returns true only for an exact (trimmed) match.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, phrase string) bool {
	p := &Printer{out: out, width: GetTerminalWidth()}

	details := make([]Detail, 0, len(warnings))
	for _, w := range warnings {
		details = append(details, Detail{Key: "•", Value: w})
	}
	p.PrintWarning(title, details...)

	p.Print(WarningTitleStyle.Render(fmt.Sprintf("Type %q to continue: ", phrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == phrase {
		return true
	}

	p.Println(MutedStyle.Render("  Operation cancelled."))
	return false
}

// ConfirmNamesReset asks before discarding every custom name on the gateway
func ConfirmNamesReset(in io.Reader, out io.Writer) bool {
	return Confirm(in, out,
		"RESET NAMES",
		[]string{
			"Every custom name on the gateway is replaced with its default",
			"The saved names file is overwritten",
		},
		"reset",
	)
}
