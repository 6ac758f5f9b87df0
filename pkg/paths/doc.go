// Package paths provides centralized path handling for bulge.
//
// Every location the engine touches is derived from a single installation
// root (default "/"), so the whole engine can operate on an alternative
// root such as a chroot, an image build directory or a test sandbox.
//
// # Layout
//
//   - <root>/var/lock/bulge.lock: transaction lock file
//   - <root>/etc/bulge/config.json: configuration document
//   - <root>/etc/bulge/mirrors: mirror list, one template per line
//   - <root>/etc/bulge/databases/cache/<repo>.db: verified repository caches
//   - <root>/etc/bulge/databases/cache.json: cache manifest
//   - <root>/etc/bulge/databases/installed/<name>.json: installed records
//   - <root>/tmp/bulge/<id>: per-transaction scratch directories
//
// # Environment Variables
//
//   - BULGE_ROOT: installation root when --root is not given
//
// # Usage
//
//	p, err := paths.New("")
//	if err != nil {
//	    return err
//	}
//	dest := p.Resolve("/usr/bin/bar") // <root>/usr/bin/bar
package paths
