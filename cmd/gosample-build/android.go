package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rajveermalviya/gosample/buildutils"
)

var (
	aarBackend     string
	settingsGradle string
	buildGradle    string
	initGradle     string
	javaVersion    string
)

var aarCmd = &cobra.Command{
	Use:   "aar <project> <package> <artifact> <version> <binding_path> <lib_path>",
	Short: "Package the android libraries and java bindings into an AAR",
	Long: `Package the android libraries found under lib_path (one directory per
ABI) and the java bindings under binding_path into
dist/android/<artifact>-<version>.aar.

The "custom" backend compiles the bindings with javac and zips the archive
directly, the "gradle" backend generates and assembles a gradle project.`,
	Args: cobra.ExactArgs(6),
	RunE: runAar,
}

func init() {
	aarCmd.Flags().StringVar(&aarBackend, "backend", "custom", "AAR backend, possible values are \"custom\", \"gradle\"")
	aarCmd.Flags().StringVar(&settingsGradle, "settings_gradle_path", "", "Custom settings.gradle template (gradle backend)")
	aarCmd.Flags().StringVar(&buildGradle, "build_gradle_path", "", "Custom build.gradle template (gradle backend)")
	aarCmd.Flags().StringVar(&initGradle, "init_gradle_path", "", "Gradle init script (gradle backend)")
	aarCmd.Flags().StringVar(&javaVersion, "java_version", "", "javac source and target release of the bindings (default 8)")
}

func runAar(cmd *cobra.Command, args []string) error {
	b, err := newBuilder()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	unlock, err := b.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	aar, err := b.AAR(buildutils.AarOptions{
		ProjectName:    args[0],
		PackageName:    args[1],
		ArtifactID:     args[2],
		Version:        args[3],
		BindingPath:    args[4],
		LibPath:        args[5],
		Backend:        aarBackend,
		SettingsGradle: settingsGradle,
		BuildGradle:    buildGradle,
		InitGradle:     initGradle,
		JavaVersion:    javaVersion,
		Download:       download,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), aar)
	return nil
}
