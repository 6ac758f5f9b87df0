// Package repo synchronizes repository databases from mirrors.
//
// For every active source the mirrors are tried strictly in order. A
// mirror is accepted only when the SHA-512 of its database.db matches its
// database.hash exactly (lower-case hex) and, when a keyring is
// configured, database.sig is a valid detached signature by a trusted key.
// The first accepted mirror ends the search for that source. Failed
// mirrors are reported and skipped; a source whose mirrors all fail keeps
// its previous cache untouched.
//
// The cached database doubles as the repository index used by search,
// upgrade and name-based install.
package repo
