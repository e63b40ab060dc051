package buildutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/rajveermalviya/gosample/internal/fsutil"
)

var sdkNames = map[string]string{
	"macos": "macosx",
	"ios":   "iphoneos",
}

// setSDK points SDKROOT at the platform sdk so clang does not default to the
// macOS sdk when targeting iOS.
func setSDK(ctx context.Context, bc *BuildContext) error {
	sdk, ok := sdkNames[bc.Target.OS]
	if !ok {
		return fmt.Errorf("setSDK: unsupported target os '%s'", bc.Target.OS)
	}

	out, err := bc.Runner.Output(bc.command(ctx, "xcrun", "--sdk", sdk, "--show-sdk-path"))
	if err != nil {
		return fmt.Errorf("setSDK: %w", err)
	}

	bc.Env["SDKROOT"] = strings.TrimSpace(string(out))
	return nil
}

// assertVersion checks with otool that every built binary was linked for
// the minimum OS version of its target.
func assertVersion(ctx context.Context, bc *BuildContext) error {
	da := bc.Target.DeploymentAssert
	if da == nil {
		return nil
	}

	for _, file := range bc.Files {
		path := bc.Project.BuildPath(bc.Target, file, bc.Debug)
		out, err := bc.Runner.Output(bc.command(ctx, "otool", "-l", path))
		if err != nil {
			return fmt.Errorf("assertVersion: %w", err)
		}

		err = assertLoadCommands(string(out), *da)
		if err != nil {
			return fmt.Errorf("assertVersion: %s: %w", file, err)
		}
	}

	return nil
}

var loadCommandRe = regexp.MustCompile(`Load command \d+`)

// splitLoadCommands splits `otool -l` output into one chunk per load command.
func splitLoadCommands(loadCommands string) []string {
	idx := loadCommandRe.FindAllStringIndex(loadCommands, -1)

	chunks := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(loadCommands)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		chunks = append(chunks, loadCommands[loc[0]:end])
	}
	return chunks
}

func assertLoadCommands(loadCommands string, da DeploymentAssert) error {
	cmdRe := regexp.MustCompile(`(?m)^\s*cmd ` + regexp.QuoteMeta(da.LoadCommand) + `\s*$`)
	versionRe := regexp.MustCompile(regexp.QuoteMeta(da.VersionKey) + ` (\d+\.\d+)`)

	found := false
	for _, chunk := range splitLoadCommands(loadCommands) {
		if !cmdRe.MatchString(chunk) {
			continue
		}

		m := versionRe.FindStringSubmatch(chunk)
		if m == nil {
			return fmt.Errorf("'%s' not found in load command '%s'", da.VersionKey, da.LoadCommand)
		}

		if m[1] != da.MinimumOS {
			return fmt.Errorf("incorrect %s: %s, expected %s", da.VersionKey, m[1], da.MinimumOS)
		}
		found = true
	}

	if !found {
		return fmt.Errorf("minimum version load command not found (%s, %s)", da.LoadCommand, da.VersionKey)
	}
	return nil
}

// Lipo merges the per-arch libraries of every configured darwin OS into fat
// libraries under dist/darwin/<os>/<profile>/ and removes the per-arch
// directories. With build set, every arch is built first.
func (b *Builder) Lipo(ctx context.Context, debug bool, build bool) error {
	oses := b.darwinOSes()
	if len(oses) == 0 {
		return errors.New("Lipo: no darwin targets configured")
	}

	for _, targetOS := range oses {
		if build {
			err := b.BuildAll(ctx, targetOS, debug)
			if err != nil {
				return fmt.Errorf("Lipo: %w", err)
			}
		}

		err := b.lipo(ctx, targetOS, debug)
		if err != nil {
			return fmt.Errorf("Lipo: %w", err)
		}
	}

	return nil
}

func (b *Builder) darwinOSes() []string {
	var oses []string
	for _, targetOS := range LipoTargetOSes {
		if _, ok := b.Config.Targets[targetOS]; ok {
			oses = append(oses, targetOS)
		}
	}
	return oses
}

func (b *Builder) lipo(ctx context.Context, targetOS string, debug bool) error {
	tc, err := b.Config.Target(targetOS)
	if err != nil {
		return err
	}

	archs := Archs(targetOS)
	universalDir := b.Project.UniversalLibraryDir(targetOS, debug)
	err = os.MkdirAll(universalDir, 0755)
	if err != nil {
		return err
	}

	for _, file := range tc.Files() {
		args := []string{"-create"}
		for _, arch := range archs {
			args = append(args, b.Project.DistributionPath(targetOS, arch, file, debug))
		}
		args = append(args, "-output", filepath.Join(universalDir, file))

		cmd := exec.CommandContext(ctx, "lipo", args...)
		cmd.Dir = b.Project.RootDir
		err = b.Runner.Run(cmd)
		if err != nil {
			return err
		}

		// headers are identical across archs
		header := filepath.Base(headerPath(file))
		src := b.Project.DistributionPath(targetOS, archs[0], header, debug)
		if fsutil.Exists(src) {
			err = fsutil.CopyFile(src, filepath.Join(universalDir, header))
			if err != nil {
				return err
			}
		}
	}

	for _, arch := range archs {
		err = os.RemoveAll(b.Project.DistributionPath(targetOS, arch, "", debug))
		if err != nil {
			return err
		}
	}

	b.Logger.Info("created fat libraries", zap.String("os", targetOS), zap.String("dir", universalDir))
	return nil
}

func moduleMap(frameworkName, header string) []byte {
	return []byte(`module ` + frameworkName + ` {
    header "` + header + `"
    export *
}
`)
}

// XCFramework bundles the fat libraries of every configured darwin OS into
// dist/darwin/<FrameworkName>[-Debug].xcframework, with the cgo generated
// header and a module map.
func (b *Builder) XCFramework(ctx context.Context, debug bool) (string, error) {
	oses := b.darwinOSes()
	if len(oses) == 0 {
		return "", errors.New("XCFramework: no darwin targets configured")
	}

	framework := b.Project.XCFrameworkPath(b.Config.FrameworkName, debug)
	err := os.RemoveAll(framework)
	if err != nil {
		return "", fmt.Errorf("XCFramework: %w", err)
	}

	tc := b.Config.Targets[oses[0]]
	files := tc.Files()
	if len(files) == 0 {
		return "", fmt.Errorf("XCFramework: %s: %w", oses[0], ErrNoPackages)
	}
	library := files[0]
	header := filepath.Base(headerPath(library))

	headersDir := filepath.Join(b.Project.DistributionDir(), "headers")
	err = os.RemoveAll(headersDir)
	if err != nil {
		return "", fmt.Errorf("XCFramework: %w", err)
	}
	defer os.RemoveAll(headersDir)

	moduleDir := filepath.Join(headersDir, b.Config.Name)
	err = fsutil.CopyFile(filepath.Join(b.Project.UniversalLibraryDir(oses[0], debug), header), filepath.Join(moduleDir, header))
	if err != nil {
		return "", fmt.Errorf("XCFramework: %w", err)
	}
	err = os.WriteFile(filepath.Join(moduleDir, "module.modulemap"), moduleMap(b.Config.FrameworkName, header), 0644)
	if err != nil {
		return "", fmt.Errorf("XCFramework: %w", err)
	}

	args := []string{"-create-xcframework"}
	for _, targetOS := range oses {
		args = append(args,
			"-library", filepath.Join(b.Project.UniversalLibraryDir(targetOS, debug), library),
			"-headers", headersDir,
		)
	}
	args = append(args, "-output", framework)

	cmd := exec.CommandContext(ctx, "xcodebuild", args...)
	cmd.Dir = b.Project.RootDir
	err = b.Runner.Run(cmd)
	if err != nil {
		return "", fmt.Errorf("XCFramework: %w", err)
	}

	b.Logger.Info("created xcframework", zap.String("path", framework))
	return framework, nil
}
