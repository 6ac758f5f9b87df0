// Package privilege escalates the running process to root before mutating
// commands touch the live system.
package privilege

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
)

// Escalator re-executes the current process as root.
type Escalator struct {
	Geteuid  func() int
	LookPath func(file string) (string, error)
	Exec     func(argv0 string, argv []string, envv []string) error
	Args     []string
	Environ  func() []string
}

// Default uses the real process state and replaces the process via sudo
var Default = &Escalator{
	Geteuid:  os.Geteuid,
	LookPath: exec.LookPath,
	Exec:     syscall.Exec,
	Args:     os.Args,
	Environ:  os.Environ,
}

// Ensure escalates with the default escalator
func Ensure(systemRoot bool) error {
	return Default.Ensure(systemRoot)
}

// Ensure re-executes through sudo when the process is not root and the
// engine operates on the live system. Alternative roots never escalate.
// On success Exec does not return.
func (e *Escalator) Ensure(systemRoot bool) error {
	logger := logging.GetLogger("privilege")

	if !systemRoot {
		logger.Debug().Msg("Alternative root, skipping privilege escalation")
		return nil
	}
	if e.Geteuid() == 0 {
		return nil
	}

	sudo, err := e.LookPath("sudo")
	if err != nil {
		return errors.Wrap(err, errors.ErrPrivilege, "bulge must run as root and sudo was not found")
	}

	argv := append([]string{"sudo", "--preserve-env=BULGE_ROOT,BULGE_LOG_FILE"}, e.Args...)
	logger.Info().Strs("argv", argv).Msg("Escalating privileges")
	if err := e.Exec(sudo, argv, e.Environ()); err != nil {
		return errors.Wrap(err, errors.ErrPrivilege, "failed to escalate to root")
	}
	return nil
}
