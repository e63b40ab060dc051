package buildutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rajveermalviya/gosample/androidbuilder"
	"github.com/rajveermalviya/gosample/internal/fsutil"
)

type Builder struct {
	Project Project
	Config  *Config
	Runner  Runner
	Logger  *zap.Logger

	// GoBin is the go command, "go" when empty.
	GoBin string
	// DownloadNDK installs the latest NDK through sdkmanager when the
	// Android SDK has none.
	DownloadNDK bool

	// FindNDK and Environ default to androidbuilder.FindNdk and os.Environ.
	FindNDK func(ctx context.Context, download bool) (string, error)
	Environ func() []string

	// ndkMu serializes NDK lookups of concurrent arch builds so at most one
	// sdkmanager download runs. ndk caches the first resolved NDK.
	ndkMu sync.Mutex
	ndk   string
}

func NewBuilder(project Project, cfg *Config, runner Runner, logger *zap.Logger) *Builder {
	return &Builder{
		Project: project,
		Config:  cfg,
		Runner:  runner,
		Logger:  logger,
		GoBin:   "go",
		FindNDK: androidbuilder.FindNdk,
		Environ: os.Environ,
	}
}

func (b *Builder) goBin() string {
	if b.GoBin == "" {
		return "go"
	}
	return b.GoBin
}

// BuildAll builds every arch of targetOS concurrently. Bindings are copied
// once, after every arch is built.
func (b *Builder) BuildAll(ctx context.Context, targetOS string, debug bool) error {
	if _, ok := Platforms[targetOS]; !ok {
		return fmt.Errorf("%w '%s', expected [%s]", ErrUnknownOS, targetOS, strings.Join(OSes(), ", "))
	}

	tc, err := b.Config.Target(targetOS)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, arch := range Archs(targetOS) {
		g.Go(func() error {
			return b.build(gctx, targetOS, arch, debug, false)
		})
	}

	err = g.Wait()
	if err != nil {
		return err
	}

	return b.copyBindings(tc)
}

// Build cross-compiles every configured package of targetOS for arch and
// copies the outputs into the distribution directory.
//
// Project pre-build hooks run before the global ones. Global post-build
// hooks only run when at least one output changed since the last build,
// project post-build hooks always run, after the bindings are copied.
func (b *Builder) Build(ctx context.Context, targetOS, arch string, debug bool) error {
	return b.build(ctx, targetOS, arch, debug, true)
}

func (b *Builder) build(ctx context.Context, targetOS, arch string, debug bool, withBindings bool) error {
	t, err := CheckTarget(targetOS, arch)
	if err != nil {
		return err
	}

	tc, err := b.Config.Target(targetOS)
	if err != nil {
		return err
	}

	if len(tc.Packages) == 0 {
		return fmt.Errorf("Build: %s: %w", targetOS, ErrNoPackages)
	}

	logger := b.Logger.With(zap.String("os", t.OS), zap.String("arch", t.Arch), zap.String("profile", profile(debug)))

	bc := &BuildContext{
		Project: b.Project,
		Target:  t,
		Debug:   debug,
		Files:   tc.Files(),
		Runner:  b.Runner,
		Logger:  logger,
	}

	bc.Env, err = b.buildEnv(ctx, bc, tc)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}

	err = runHooks(ctx, bc, tc.PreBuild)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}
	err = runHooks(ctx, bc, Platforms[targetOS].PreBuild)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}

	distDir := bc.DistDir()
	err = os.RemoveAll(distDir)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}
	err = os.MkdirAll(distDir, 0755)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}

	anyChanged := false
	for _, pkg := range tc.sortedPackages() {
		file := tc.Packages[pkg]
		out := b.Project.BuildPath(t, file, debug)

		err = os.MkdirAll(filepath.Dir(out), 0755)
		if err != nil {
			return fmt.Errorf("Build: %w", err)
		}

		err = b.Runner.Run(bc.command(ctx, b.goBin(), goBuildArgs(tc, debug, file, out, pkg)...))
		if err != nil {
			return fmt.Errorf("Build: %s: %w", pkg, err)
		}

		changed, sum, old, err := updateChecksum(out)
		if err != nil {
			return fmt.Errorf("Build: %w", err)
		}
		if changed {
			logger.Info("artifact changed", zap.String("path", out), zap.String("sha256", sum), zap.String("previous", old))
			anyChanged = true
		}

		err = fsutil.CopyFile(out, filepath.Join(distDir, file))
		if err != nil {
			return fmt.Errorf("Build: %w", err)
		}

		// darwin headers are needed later by the xcframework
		if header := headerPath(out); isDarwin(targetOS) && fsutil.Exists(header) {
			err = fsutil.CopyFile(header, filepath.Join(distDir, filepath.Base(header)))
			if err != nil {
				return fmt.Errorf("Build: %w", err)
			}
		}
	}

	if anyChanged {
		err = runHooks(ctx, bc, Platforms[targetOS].PostBuild)
		if err != nil {
			return fmt.Errorf("Build: %w", err)
		}
	} else {
		logger.Info("skipping post build steps since none of the built artifacts have changed")
	}

	if withBindings {
		err = b.copyBindings(tc)
		if err != nil {
			return fmt.Errorf("Build: %w", err)
		}
	}

	err = runHooks(ctx, bc, tc.PostBuild)
	if err != nil {
		return fmt.Errorf("Build: %w", err)
	}

	logger.Info("built packages", zap.Strings("files", bc.Files), zap.String("dist", distDir))
	return nil
}

// buildEnv layers the environment of a build: host, go target, android
// compilers, then the env of the target table and of the project.
func (b *Builder) buildEnv(ctx context.Context, bc *BuildContext, tc TargetConfig) (Env, error) {
	environ := os.Environ
	if b.Environ != nil {
		environ = b.Environ
	}

	t := bc.Target
	env := ParseEnv(environ())
	env["CGO_ENABLED"] = "1"
	env["GOOS"] = t.GOOS
	env["GOARCH"] = t.GOARCH
	if t.GOARM != "" {
		env["GOARM"] = t.GOARM
	} else {
		delete(env, "GOARM")
	}

	if t.OS == "android" {
		ndk, err := b.resolveNDK(ctx)
		if err != nil {
			return nil, fmt.Errorf("buildEnv: %w", err)
		}

		cc, cxx, err := androidbuilder.CompilerEnv(ndk, t.ClangTarget, tc.minSdk())
		if err != nil {
			return nil, fmt.Errorf("buildEnv: %w", err)
		}

		bc.NDK = ndk
		env["CC"] = cc
		env["CXX"] = cxx
	}

	env.Apply(Platforms[t.OS].Env, t.Env, tc.Env, tc.archEnv(t.Arch))
	return env, nil
}

// resolveNDK finds, or with DownloadNDK installs, the NDK once per Builder.
func (b *Builder) resolveNDK(ctx context.Context) (string, error) {
	b.ndkMu.Lock()
	defer b.ndkMu.Unlock()

	if b.ndk != "" {
		return b.ndk, nil
	}

	findNDK := androidbuilder.FindNdk
	if b.FindNDK != nil {
		findNDK = b.FindNDK
	}

	ndk, err := findNDK(ctx, b.DownloadNDK)
	if err != nil {
		return "", err
	}

	b.ndk = ndk
	return ndk, nil
}

func goBuildArgs(tc TargetConfig, debug bool, file, out, pkg string) []string {
	args := []string{
		"build",
		"-trimpath",
		"-buildmode", tc.buildMode(file),
	}
	if !debug {
		args = append(args, "-ldflags", "-s -w")
	}
	args = append(args, tc.BuildArgs...)
	args = append(args,
		"-o", out,
		pkg,
	)
	return args
}

// headerPath is the C header go emits next to a c-shared or c-archive output.
func headerPath(out string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + ".h"
}

func (b *Builder) copyBindings(tc TargetConfig) error {
	if tc.BindingSrc == "" {
		return nil
	}

	src := filepath.Join(b.Project.RootDir, tc.BindingSrc)
	dst := filepath.Join(b.Project.RootDir, tc.BindingDest, filepath.Base(src))

	err := os.RemoveAll(dst)
	if err != nil {
		return fmt.Errorf("copyBindings: %w", err)
	}

	err = fsutil.CopyTreeOrFile(src, dst)
	if err != nil {
		return fmt.Errorf("copyBindings: %w", err)
	}

	b.Logger.Info("copied bindings", zap.String("src", src), zap.String("dst", dst))
	return nil
}
