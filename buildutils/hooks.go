package buildutils

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// BuildContext is the state of a single os/arch build, shared with hooks.
type BuildContext struct {
	Project Project
	Target  Target
	Debug   bool
	// Files are the output file names of the built packages.
	Files []string
	// Env is the environment of every command run for this build. Pre-build
	// hooks may change it.
	Env Env
	// NDK is the android NDK used for the build, empty for other OSes.
	NDK string

	Runner Runner
	Logger *zap.Logger
}

// DistDir is the per-arch distribution directory of the build.
func (c *BuildContext) DistDir() string {
	return c.Project.DistributionPath(c.Target.OS, c.Target.DistArch(), "", c.Debug)
}

func (c *BuildContext) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Project.RootDir
	cmd.Env = c.Env.Environ()
	return cmd
}

// Hook runs before or after a build, named from the target table or from
// the project configuration.
type Hook func(ctx context.Context, bc *BuildContext) error

var hooks = map[string]Hook{
	"strip_android":  stripAndroid,
	"strip_linux":    stripLinux,
	"assert_version": assertVersion,
	"set_sdk":        setSDK,
}

func runHooks(ctx context.Context, bc *BuildContext, names []string) error {
	for _, name := range names {
		hook, ok := hooks[name]
		if !ok {
			return fmt.Errorf("runHooks: unknown hook %q", name)
		}

		bc.Logger.Debug("running hook", zap.String("hook", name), zap.String("os", bc.Target.OS), zap.String("arch", bc.Target.Arch))
		err := hook(ctx, bc)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func distFiles(bc *BuildContext) []string {
	paths := make([]string, 0, len(bc.Files))
	for _, f := range bc.Files {
		paths = append(paths, filepath.Join(bc.DistDir(), f))
	}
	return paths
}
