// Package datastore provides the installed-package database: a key-value
// store keyed by package name, with one JSON document per package under
// <root>/etc/bulge/databases/installed.
//
// The store is the single authority for file ownership. A path is owned by
// at most one record; callers that delete another package's file during a
// confirmed conflict resolution must Disown it before writing the new
// record.
//
// Records are written in two steps. Put stores the record as pending before
// the payload is extracted; Commit promotes it once extraction succeeded. A
// pending record found later means a transaction was interrupted and the
// package needs to be reinstalled or removed.
package datastore
