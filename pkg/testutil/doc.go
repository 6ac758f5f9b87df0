// Package testutil provides utilities for testing bulge components.
//
// Key components:
//   - TestEnvironment: a sandbox root with filesystem, paths and datastore
//   - PackageBuilder: builds package archives in memory
//   - ScriptedDialog: answers confirmations deterministically
//   - FaultyFS: injects filesystem errors for chosen operations and paths
//   - MirrorServer: an HTTP mirror that records every request
//
// Usage guidelines:
//   - Prefer EnvMemoryOnly; use EnvIsolated when real OS semantics matter
//   - All test data should be defined inline, not in external files
//   - Each test should be completely isolated with no shared state
package testutil
