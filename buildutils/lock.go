package buildutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const lockFile = ".gosample-build.lock"

// LockPath is the lock file serializing builds of the project.
func (p Project) LockPath() string {
	return filepath.Join(p.TargetDir(), lockFile)
}

// Lock takes the project build lock, waiting for other gosample-build
// processes working on the same tree. The returned func releases it.
func (b *Builder) Lock(ctx context.Context) (func() error, error) {
	path := b.Project.LockPath()
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("Lock: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("Lock: %w", err)
	}

	if !locked {
		b.Logger.Info("waiting for another build of this project", zap.String("lock", path))
		locked, err = fl.TryLockContext(ctx, 250*time.Millisecond)
		if err != nil {
			return nil, fmt.Errorf("Lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("Lock: %s is held by another build", path)
		}
	}

	return fl.Unlock, nil
}
