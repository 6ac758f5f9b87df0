// Package executor runs package transactions against an installation root.
//
// An install unpacks the archive into a scratch directory, decodes its
// descriptor, asks the dependency resolver and the user for approval,
// checks the payload against the live filesystem and the installed-package
// database, then records the package as pending, extracts the payload and
// commits the record. A remove deletes the files a package owns and then
// its record. Both hold the host-wide lock for their whole duration.
package executor
