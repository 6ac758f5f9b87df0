// Package commands implements the bulge commands on top of the engine
// packages. The cobra layer in cmd/bulge only parses arguments and renders
// what these functions return.
package commands
