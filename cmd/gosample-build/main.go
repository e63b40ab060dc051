// Command gosample-build cross-compiles libgosample and packages it for
// android, linux, windows, macOS and iOS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rajveermalviya/gosample/buildutils"
)

var (
	// Global flags
	configPath string
	rootDir    string
	verbose    bool
	download   bool

	logger *zap.Logger

	// newRunner is replaced in tests.
	newRunner = func(logger *zap.Logger) buildutils.Runner {
		return buildutils.NewExecRunner(logger)
	}
)

var rootCmd = &cobra.Command{
	Use:   "gosample-build",
	Short: "Build and package libgosample for every supported platform",
	Long: `gosample-build cross-compiles the go packages listed in the project
configuration (gosample.yaml) into C shared and static libraries, and
assembles them into a distribution tree under dist/.

Android libraries are packaged into an AAR, darwin libraries are merged
with lipo and bundled into an xcframework.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			config.Encoding = "console"
			config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Project configuration (default: <root>/"+buildutils.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Project root directory (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&download, "download", false, "Download a missing NDK or android platform through sdkmanager")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(lipoCmd)
	rootCmd.AddCommand(xcframeworkCmd)
	rootCmd.AddCommand(aarCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT and SIGTERM so running compilers are
// killed with the tool.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func projectRoot() (string, error) {
	if rootDir != "" {
		return filepath.Abs(rootDir)
	}
	return os.Getwd()
}

// newBuilder loads the project configuration and wires a builder with the
// global flags.
func newBuilder() (*buildutils.Builder, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	path := configPath
	if path == "" {
		path = filepath.Join(root, buildutils.DefaultConfigFile)
	}

	cfg, err := buildutils.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded config", zap.String("path", path), zap.Strings("targets", cfg.OSes()))

	b := buildutils.NewBuilder(buildutils.Project{RootDir: root}, cfg, newRunner(logger), logger)
	b.DownloadNDK = download
	return b, nil
}
