package buildutils

import (
	"context"
	"fmt"
	"os"

	"github.com/rajveermalviya/gosample/internal/fsutil"
)

// stripLinux splits the debug symbols of release libraries into a read-only
// "<file>.debug" and strips the library.
func stripLinux(ctx context.Context, bc *BuildContext) error {
	if bc.Target.OS != "linux" || bc.Debug {
		return nil
	}

	strip := bc.Target.StripPath
	if strip == "" || !fsutil.Exists(strip) {
		// fallback to default objcopy
		strip = "objcopy"
	}

	for _, bin := range distFiles(bc) {
		err := bc.Runner.Run(bc.command(ctx, strip,
			"--only-keep-debug",
			"--compress-debug-sections=zlib",
			bin,
			bin+".debug",
		))
		if err != nil {
			return fmt.Errorf("stripLinux: %w", err)
		}

		err = os.Chmod(bin+".debug", 0444)
		if err != nil {
			return fmt.Errorf("stripLinux: %w", err)
		}

		err = bc.Runner.Run(bc.command(ctx, strip, "--strip-all", bin))
		if err != nil {
			return fmt.Errorf("stripLinux: %w", err)
		}
	}

	return nil
}
