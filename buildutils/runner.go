package buildutils

import (
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Runner executes the external tools of a build: go, lipo, otool, xcrun,
// xcodebuild, strip tools.
type Runner interface {
	Run(cmd *exec.Cmd) error
	Output(cmd *exec.Cmd) ([]byte, error)
}

// ExecRunner logs and executes commands.
type ExecRunner struct {
	Logger *zap.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Run(cmd *exec.Cmd) error {
	r.Logger.Info("execute", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))
	if cmd.Stdout == nil {
		cmd.Stdout = r.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = r.Stderr
	}
	return cmd.Run()
}

// Output runs cmd and returns its stdout. Stderr is captured in the
// returned *exec.ExitError on failure.
func (r *ExecRunner) Output(cmd *exec.Cmd) ([]byte, error) {
	r.Logger.Info("execute", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			r.Logger.Error("command failed", zap.String("cmd", cmd.String()), zap.ByteString("stderr", ee.Stderr))
		}
		return nil, err
	}
	r.Logger.Debug("command output", zap.String("cmd", cmd.String()), zap.ByteString("stdout", out))
	return out, nil
}
