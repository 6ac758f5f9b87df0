// Package archive reads bulge package archives.
//
// A package is a compressed tar stream holding at least two entries: PKG, a
// JSON descriptor, and data.tar.xz, the payload whose paths are relative to
// the filesystem root. The outer stream may be xz, zstd or gzip compressed;
// the compression is detected from the leading magic bytes.
//
// Archives are processed as streams. The outer archive is unpacked into a
// per-transaction scratch directory, the payload is enumerated without
// being extracted, and only once the transaction is approved is the
// payload extracted onto the root with permissions and extended attributes
// preserved.
package archive
