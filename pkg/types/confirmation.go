package types

// ConfirmationRequest represents a request for user confirmation before a
// destructive or unusual step of a transaction
type ConfirmationRequest struct {
	// ID is a unique identifier for this confirmation within the operation
	ID string

	// Package is the name of the package this confirmation relates to
	Package string

	// Operation is the transaction kind ("install", "remove", "lock")
	Operation string

	// Title is a brief, user-friendly title describing what needs confirmation
	Title string

	// Description provides detailed information about what will happen
	Description string

	// Items lists specific items that will be affected (files, packages)
	Items []string

	// Default indicates the default response if user just presses enter
	// true = default to "yes", false = default to "no"
	Default bool
}

// ConfirmationDialog asks the user a yes/no question.
type ConfirmationDialog interface {
	Confirm(req ConfirmationRequest) (bool, error)
}

// ConfirmationFunc adapts a function to ConfirmationDialog
type ConfirmationFunc func(req ConfirmationRequest) (bool, error)

// Confirm implements ConfirmationDialog
func (f ConfirmationFunc) Confirm(req ConfirmationRequest) (bool, error) {
	return f(req)
}

// AlwaysConfirm answers yes to every request (--noconfirm).
var AlwaysConfirm ConfirmationDialog = ConfirmationFunc(func(ConfirmationRequest) (bool, error) {
	return true, nil
})
