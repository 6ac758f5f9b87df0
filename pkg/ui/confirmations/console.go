// Package confirmations provides UI implementations for confirmation dialogs.
package confirmations

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/arthur-debert/bulge/pkg/ui/styles"
)

// maxListedItems caps how many affected items are printed before eliding
const maxListedItems = 10

// ConsoleDialog implements ConfirmationDialog for console interaction. Only
// "y" and "yes" (any case) approve; an empty answer takes the request
// default.
type ConsoleDialog struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleDialog creates a dialog reading answers from in and writing
// prompts to out
func NewConsoleDialog(in io.Reader, out io.Writer) *ConsoleDialog {
	return &ConsoleDialog{in: bufio.NewReader(in), out: out}
}

// Confirm implements types.ConfirmationDialog
func (d *ConsoleDialog) Confirm(req types.ConfirmationRequest) (bool, error) {
	if len(req.Items) > 0 && req.Description != strings.Join(req.Items, "\n") && req.Description != "" {
		_, _ = fmt.Fprintln(d.out, styles.Render("Muted", req.Description))
	}
	for i, item := range req.Items {
		if i == maxListedItems {
			_, _ = fmt.Fprintf(d.out, "  ... and %d more\n", len(req.Items)-maxListedItems)
			break
		}
		_, _ = fmt.Fprintf(d.out, "  %s\n", styles.Render("FilePath", item))
	}

	marker := "[y/N]"
	if req.Default {
		marker = "[Y/n]"
	}
	_, _ = fmt.Fprintf(d.out, "%s %s ", styles.Render("Warning", req.Title), marker)

	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrapf(err, errors.ErrInternal, "failed to read user input for confirmation %s", req.ID)
	}
	if err == io.EOF && line == "" {
		_, _ = fmt.Fprintln(d.out)
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return req.Default, nil
	}
	return answer == "y" || answer == "yes", nil
}
