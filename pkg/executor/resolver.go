package executor

import (
	"context"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
)

// DependencyResolver is consulted before the user confirms an install. A
// non-nil error vetoes the transaction.
type DependencyResolver interface {
	Check(ctx context.Context, pkg types.Descriptor, installed []types.InstalledPackage) error
}

// ResolverFunc adapts a function to DependencyResolver
type ResolverFunc func(ctx context.Context, pkg types.Descriptor, installed []types.InstalledPackage) error

// Check implements DependencyResolver
func (f ResolverFunc) Check(ctx context.Context, pkg types.Descriptor, installed []types.InstalledPackage) error {
	return f(ctx, pkg, installed)
}

// NoopResolver accepts every package. Dependency and conflicting-package
// resolution are not implemented.
type NoopResolver struct{}

// Check implements DependencyResolver
func (NoopResolver) Check(_ context.Context, pkg types.Descriptor, _ []types.InstalledPackage) error {
	logger := logging.GetLogger("executor.resolver")
	logger.Debug().
		Str("package", pkg.Name).
		Strs("conflicts", pkg.ConflictsList()).
		Msg("Dependency resolution not implemented, accepting")
	return nil
}

// vetoError gives a resolver rejection the DEPENDENCY_VETO code
func vetoError(pkg types.Descriptor, err error) error {
	if errors.IsErrorCode(err, errors.ErrDependencyVeto) {
		return err
	}
	return errors.Wrapf(err, errors.ErrDependencyVeto, "dependency check rejected %s", pkg.Name).
		WithDetail("package", pkg.Name)
}
