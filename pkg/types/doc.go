// Package types defines the core types and interfaces shared by bulge's
// engine components: the filesystem abstraction, the confirmation
// capability, package descriptors and installed-package records.
package types
