package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/arthur-debert/bulge/pkg/types"
)

// ScriptedDialog answers confirmation requests from a script. Answers set
// with On match by request ID prefix; otherwise queued answers are used in
// order. An unexpected request is an error.
type ScriptedDialog struct {
	mu       sync.Mutex
	byID     map[string]bool
	queue    []bool
	requests []types.ConfirmationRequest
}

// NewScriptedDialog creates a dialog that returns answers in order
func NewScriptedDialog(answers ...bool) *ScriptedDialog {
	return &ScriptedDialog{byID: map[string]bool{}, queue: answers}
}

// AlwaysYes returns a dialog accepting every request
func AlwaysYes() *ScriptedDialog {
	return NewScriptedDialog().On("", true)
}

// On answers every request whose ID starts with prefix
func (d *ScriptedDialog) On(prefix string, yes bool) *ScriptedDialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[prefix] = yes
	return d
}

// Confirm implements types.ConfirmationDialog
func (d *ScriptedDialog) Confirm(req types.ConfirmationRequest) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)

	best, found := "", false
	for prefix := range d.byID {
		if strings.HasPrefix(req.ID, prefix) && (!found || len(prefix) > len(best)) {
			best, found = prefix, true
		}
	}
	if found {
		return d.byID[best], nil
	}

	if len(d.queue) == 0 {
		return false, fmt.Errorf("unexpected confirmation %q", req.ID)
	}
	answer := d.queue[0]
	d.queue = d.queue[1:]
	return answer, nil
}

// Requests returns every request seen so far
func (d *ScriptedDialog) Requests() []types.ConfirmationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.ConfirmationRequest(nil), d.requests...)
}

// IDs returns the IDs of every request seen so far
func (d *ScriptedDialog) IDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, len(d.requests))
	for i, r := range d.requests {
		ids[i] = r.ID
	}
	return ids
}
