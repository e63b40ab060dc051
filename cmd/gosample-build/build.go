package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rajveermalviya/gosample/buildutils"
)

var (
	debugBuild bool
	lipoBuild  bool
)

var buildCmd = &cobra.Command{
	Use:   "build <os> <arch|all>",
	Short: "Build the configured packages for a target",
	Long: `Build the configured packages for one os and arch, or for every arch
of the os with "all".

Valid os values: ` + strings.Join(buildutils.OSes(), ", ") + `.`,
	Args: cobra.ExactArgs(2),
	RunE: runBuild,
}

var lipoCmd = &cobra.Command{
	Use:   "lipo",
	Short: "Merge the per-arch darwin libraries into fat libraries",
	Args:  cobra.NoArgs,
	RunE:  runLipo,
}

var xcframeworkCmd = &cobra.Command{
	Use:   "xcframework",
	Short: "Bundle the fat darwin libraries into an xcframework",
	Args:  cobra.NoArgs,
	RunE:  runXCFramework,
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, lipoCmd, xcframeworkCmd} {
		c.Flags().BoolVar(&debugBuild, "debug", false, "Build with debug symbols")
	}
	lipoCmd.Flags().BoolVar(&lipoBuild, "build", false, "Build every darwin arch before merging")
}

func runBuild(cmd *cobra.Command, args []string) error {
	targetOS, arch := args[0], args[1]

	if arch != "all" {
		// fail before loading the config
		if _, err := buildutils.CheckTarget(targetOS, arch); err != nil {
			return err
		}
	}

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

	if arch == "all" {
		return b.BuildAll(ctx, targetOS, debugBuild)
	}
	return b.Build(ctx, targetOS, arch, debugBuild)
}

func runLipo(cmd *cobra.Command, args []string) error {
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

	return b.Lipo(ctx, debugBuild, lipoBuild)
}

func runXCFramework(cmd *cobra.Command, args []string) error {
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

	framework, err := b.XCFramework(ctx, debugBuild)
	if err != nil {
		return err
	}

	logger.Debug("xcframework ready", zap.String("path", framework))
	fmt.Fprintln(cmd.OutOrStdout(), framework)
	return nil
}
