package buildutils

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type runRecord struct {
	args []string
	env  []string
	dir  string
}

// fakeRunner records commands and fakes the files tools would write.
type fakeRunner struct {
	mu      sync.Mutex
	runs    []runRecord
	content string
	// outputs is the stdout of Output keyed by program base name.
	outputs map[string]string
	// fail makes commands of the named program fail.
	fail map[string]error
	// onRun sees the arguments of every Run before its fake side effects.
	onRun func(args []string)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		content: "binary",
		outputs: map[string]string{},
		fail:    map[string]error{},
	}
}

func (r *fakeRunner) record(cmd *exec.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, runRecord{args: cmd.Args, env: cmd.Env, dir: cmd.Dir})
	return r.fail[filepath.Base(cmd.Args[0])]
}

func (r *fakeRunner) Run(cmd *exec.Cmd) error {
	err := r.record(cmd)
	if err != nil {
		return err
	}

	args := cmd.Args
	if r.onRun != nil {
		r.onRun(args)
	}

	for i, arg := range args {
		if (arg == "-o" || arg == "-output") && i+1 < len(args) {
			out := args[i+1]
			err = writeTestFile(out, r.content)
			if err != nil {
				return err
			}
			if args[1] == "build" {
				return writeTestFile(headerPath(out), "header")
			}
			return nil
		}

		if arg == "--only-keep-debug" {
			return writeTestFile(args[len(args)-1], "debug")
		}
	}
	return nil
}

func (r *fakeRunner) Output(cmd *exec.Cmd) ([]byte, error) {
	err := r.record(cmd)
	if err != nil {
		return nil, err
	}
	return []byte(r.outputs[filepath.Base(cmd.Args[0])]), nil
}

// programs returns the base names of the executed programs, in order.
func (r *fakeRunner) programs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.runs))
	for _, run := range r.runs {
		names = append(names, filepath.Base(run.args[0]))
	}
	return names
}

func (r *fakeRunner) find(program string) []runRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var runs []runRecord
	for _, run := range r.runs {
		if filepath.Base(run.args[0]) == program {
			runs = append(runs, run)
		}
	}
	return runs
}

func (r *fakeRunner) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = nil
}

func writeTestFile(path, content string) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func envValue(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func newTestBuilder(t *testing.T, config string) (*Builder, *fakeRunner) {
	t.Helper()

	cfg, err := ParseConfig([]byte(config))
	require.NoError(t, err)

	root := t.TempDir()
	runner := newFakeRunner()

	b := NewBuilder(Project{RootDir: root}, cfg, runner, zap.NewNop())
	b.Environ = func() []string {
		return []string{"PATH=/usr/bin", "GOARM=6", "CGO_CFLAGS=-O2"}
	}
	b.FindNDK = func(ctx context.Context, download bool) (string, error) {
		return filepath.Join(root, "ndk"), nil
	}
	return b, runner
}
