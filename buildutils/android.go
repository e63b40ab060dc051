package buildutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rajveermalviya/gosample/androidbuilder"
	"github.com/rajveermalviya/gosample/internal/fsutil"
)

// stripAndroid moves the per-arch directory into stripped/<abi> and
// unstripped/<abi> next to it and strips the libraries of the former with
// the NDK llvm-strip.
func stripAndroid(ctx context.Context, bc *BuildContext) error {
	if bc.NDK == "" {
		return errors.New("stripAndroid: no ndk resolved for the build")
	}

	archDir := bc.DistDir()
	abi := bc.Target.DistArch()
	stripDir := filepath.Join(filepath.Dir(archDir), "stripped", abi)
	unstripDir := filepath.Join(filepath.Dir(archDir), "unstripped", abi)

	for _, dir := range []string{stripDir, unstripDir} {
		err := os.RemoveAll(dir)
		if err != nil {
			return fmt.Errorf("stripAndroid: %w", err)
		}

		err = fsutil.CopyTree(archDir, dir)
		if err != nil {
			return fmt.Errorf("stripAndroid: %w", err)
		}
	}

	err := os.RemoveAll(archDir)
	if err != nil {
		return fmt.Errorf("stripAndroid: %w", err)
	}

	strip, err := androidbuilder.LlvmStrip(bc.NDK)
	if err != nil {
		return fmt.Errorf("stripAndroid: %w", err)
	}

	for _, file := range bc.Files {
		err = bc.Runner.Run(bc.command(ctx, strip, filepath.Join(stripDir, file)))
		if err != nil {
			return fmt.Errorf("stripAndroid: %w", err)
		}
	}

	bc.Logger.Info("stripped android libraries", zap.String("stripped", stripDir), zap.String("unstripped", unstripDir))
	return nil
}

// AarOptions are the inputs of Builder.AAR.
type AarOptions struct {
	ProjectName string
	PackageName string
	ArtifactID  string
	Version     string
	BindingPath string
	LibPath     string

	// Backend is "custom" (default) or "gradle".
	Backend        string
	SettingsGradle string
	BuildGradle    string
	InitGradle     string
	// JavaVersion is the javac source and target release of the bindings,
	// 8 when empty.
	JavaVersion string
	// Download installs a missing android platform through sdkmanager.
	Download bool
}

type aarBuilder interface {
	BuildAar(spec androidbuilder.AarSpec) (string, error)
}

// AAR packages the android libraries under opts.LibPath and the bindings
// under opts.BindingPath into dist/android/<artifact>-<version>.aar.
// Relative paths are resolved against the project root.
func (b *Builder) AAR(opts AarOptions) (string, error) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(b.Project.RootDir, p)
	}

	spec := androidbuilder.AarSpec{
		ProjectName: opts.ProjectName,
		PackageName: opts.PackageName,
		ArtifactID:  opts.ArtifactID,
		Version:     opts.Version,
		BindingPath: resolve(opts.BindingPath),
		LibPath:     resolve(opts.LibPath),
		OutputDir:   filepath.Join(b.Project.DistributionDir(), "android"),
	}

	err := os.MkdirAll(spec.OutputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("AAR: %w", err)
	}

	builderOpts := []androidbuilder.AarOption{
		androidbuilder.AarOptRunner(b.Runner),
	}
	if tc, ok := b.Config.Targets["android"]; ok {
		builderOpts = append(builderOpts, androidbuilder.AarOptSdk(tc.minSdk(), ""))
	}
	if opts.JavaVersion != "" {
		builderOpts = append(builderOpts, androidbuilder.AarOptJavacCompatibility(opts.JavaVersion, opts.JavaVersion))
	}

	var ab aarBuilder
	switch opts.Backend {
	case "", "custom":
		ab, err = androidbuilder.NewCustomAarBuilder(opts.Download, builderOpts...)
	case "gradle":
		builderOpts = append(builderOpts,
			androidbuilder.GradleOptSettings(resolve(opts.SettingsGradle)),
			androidbuilder.GradleOptBuildGradle(resolve(opts.BuildGradle)),
			androidbuilder.GradleOptInitGradle(resolve(opts.InitGradle)),
		)
		ab, err = androidbuilder.NewGradleBuilder(builderOpts...)
	default:
		return "", errors.New("AAR: invalid backend " + opts.Backend + ", possible values are \"custom\", \"gradle\"")
	}
	if err != nil {
		return "", fmt.Errorf("AAR: %w", err)
	}

	aar, err := ab.BuildAar(spec)
	if err != nil {
		return "", fmt.Errorf("AAR: %w", err)
	}

	b.Logger.Info("built aar", zap.String("path", aar))
	return aar, nil
}
