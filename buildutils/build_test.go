package buildutils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxBuildConfig = `
targets:
  linux:
    packages:
      ./cmd/libgosample: libgosample.so
    build_args: ["-tags", "netgo"]
    env:
      CGO_CFLAGS:
        value: " -g"
        mode: append
    archs:
      armv7:
        env:
          CC: arm-linux-gnueabihf-gcc-12
    post_build: [strip_linux]
`

func TestBuildLinux(t *testing.T) {
	b, runner := newTestBuilder(t, linuxBuildConfig)

	err := b.Build(context.Background(), "linux", "x86_64", false)
	require.NoError(t, err)

	goRuns := runner.find("go")
	require.Len(t, goRuns, 1)

	out := filepath.Join(b.Project.RootDir, "target", "linux_x86_64", "release", "libgosample.so")
	assert.Equal(t, []string{
		"go", "build", "-trimpath",
		"-buildmode", "c-shared",
		"-ldflags", "-s -w",
		"-tags", "netgo",
		"-o", out,
		"./cmd/libgosample",
	}, goRuns[0].args)
	assert.Equal(t, b.Project.RootDir, goRuns[0].dir)

	env := goRuns[0].env
	for key, want := range map[string]string{
		"CGO_ENABLED": "1",
		"GOOS":        "linux",
		"GOARCH":      "amd64",
		"CGO_CFLAGS":  "-O2 -g",
		"PATH":        "/usr/bin",
	} {
		got, ok := envValue(env, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, ok := envValue(env, "GOARM")
	assert.False(t, ok, "GOARM must not leak from the host")

	dist := filepath.Join(b.Project.RootDir, "dist", "linux", "release", "x86_64", "libgosample.so")
	assert.FileExists(t, dist)
	assert.FileExists(t, out+".sha256")

	// strip_linux is a project post build hook
	stripRuns := runner.find("objcopy")
	require.Len(t, stripRuns, 2)
	assert.Equal(t, []string{"--only-keep-debug", "--compress-debug-sections=zlib", dist, dist + ".debug"}, stripRuns[0].args[1:])
	assert.Equal(t, []string{"--strip-all", dist}, stripRuns[1].args[1:])

	if runtime.GOOS != "windows" {
		info, err := os.Stat(dist + ".debug")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0444), info.Mode().Perm())
	}
}

func TestBuildLinuxArchEnv(t *testing.T) {
	b, runner := newTestBuilder(t, linuxBuildConfig)

	err := b.Build(context.Background(), "linux", "armv7", true)
	require.NoError(t, err)

	goRuns := runner.find("go")
	require.Len(t, goRuns, 1)
	assert.NotContains(t, goRuns[0].args, "-ldflags")

	cc, _ := envValue(goRuns[0].env, "CC")
	assert.Equal(t, "arm-linux-gnueabihf-gcc-12", cc)
	goarm, _ := envValue(goRuns[0].env, "GOARM")
	assert.Equal(t, "7", goarm)

	// debug builds keep their symbols
	assert.Empty(t, runner.find("objcopy"))
	assert.FileExists(t, filepath.Join(b.Project.RootDir, "dist", "linux", "debug", "armv7", "libgosample.so"))
}

func TestBuildResetsDistDirectory(t *testing.T) {
	b, _ := newTestBuilder(t, linuxBuildConfig)

	stale := filepath.Join(b.Project.RootDir, "dist", "linux", "debug", "x86_64", "stale.so")
	require.NoError(t, writeTestFile(stale, "old"))

	err := b.Build(context.Background(), "linux", "x86_64", true)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

const macosBuildConfig = `
targets:
  macos:
    packages:
      ./cmd/libgosample: libgosample.a
    post_build: [assert_version]
`

const otoolOutput = `libgosample.a(go.o):
Load command 0
      cmd LC_SEGMENT_64
  cmdsize 72
  segname __TEXT
Load command 1
      cmd LC_BUILD_VERSION
  cmdsize 24
 platform 1
    minos 11.0
      sdk 14.2
   ntools 0
Load command 2
      cmd LC_SYMTAB
  cmdsize 24
`

func TestBuildMacOSHooksAndChecksum(t *testing.T) {
	b, runner := newTestBuilder(t, macosBuildConfig)
	runner.outputs["xcrun"] = "/sdk/MacOSX.sdk\n"
	runner.outputs["otool"] = otoolOutput

	err := b.Build(context.Background(), "macos", "aarch64", false)
	require.NoError(t, err)

	// global set_sdk, go build, global assert_version, project assert_version
	assert.Equal(t, []string{"xcrun", "go", "otool", "otool"}, runner.programs())

	goRun := runner.find("go")[0]
	assert.Contains(t, goRun.args, "c-archive")
	sdk, _ := envValue(goRun.env, "SDKROOT")
	assert.Equal(t, "/sdk/MacOSX.sdk", sdk)
	cc, _ := envValue(goRun.env, "CC")
	assert.Equal(t, "clang -arch arm64", cc)
	cflags, _ := envValue(goRun.env, "CGO_CFLAGS")
	assert.Equal(t, "-O2 -mmacosx-version-min=11.0", cflags)
	target, _ := envValue(goRun.env, "MACOSX_DEPLOYMENT_TARGET")
	assert.Equal(t, "11.0", target)

	dist := filepath.Join(b.Project.RootDir, "dist", "darwin", "macos", "release", "aarch64")
	assert.FileExists(t, filepath.Join(dist, "libgosample.a"))
	assert.FileExists(t, filepath.Join(dist, "libgosample.h"))

	// unchanged output skips the global post build hooks only
	runner.reset()
	err = b.Build(context.Background(), "macos", "aarch64", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"xcrun", "go", "otool"}, runner.programs())
}

func TestBuildMacOSWrongDeploymentTarget(t *testing.T) {
	b, runner := newTestBuilder(t, macosBuildConfig)
	runner.outputs["otool"] = strings.Replace(otoolOutput, "minos 11.0", "minos 14.0", 1)

	err := b.Build(context.Background(), "macos", "x86_64", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect minos: 14.0, expected 11.0")
}

const androidBuildConfig = `
targets:
  android:
    packages:
      ./cmd/libgosample: libgosample.so
    min_sdk: "23"
    binding_src: ffi/java
    binding_dest: dist/android/
`

func TestBuildAndroid(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("no NDK toolchain for " + runtime.GOOS)
	}

	b, runner := newTestBuilder(t, androidBuildConfig)
	binding := filepath.Join(b.Project.RootDir, "ffi", "java", "com", "rajveermalviya", "gosample", "GoSample.java")
	require.NoError(t, writeTestFile(binding, "class GoSample {}"))

	err := b.Build(context.Background(), "android", "aarch64", false)
	require.NoError(t, err)

	goRun := runner.find("go")[0]
	cc, _ := envValue(goRun.env, "CC")
	assert.Contains(t, cc, "--target=aarch64-linux-android23")
	assert.True(t, strings.HasPrefix(cc, filepath.Join(b.Project.RootDir, "ndk")), cc)
	goos, _ := envValue(goRun.env, "GOOS")
	assert.Equal(t, "android", goos)

	release := filepath.Join(b.Project.RootDir, "dist", "android", "release")
	assert.NoDirExists(t, filepath.Join(release, "arm64-v8a"))
	assert.FileExists(t, filepath.Join(release, "stripped", "arm64-v8a", "libgosample.so"))
	assert.FileExists(t, filepath.Join(release, "unstripped", "arm64-v8a", "libgosample.so"))

	programs := runner.programs()
	require.Len(t, programs, 2)
	assert.True(t, strings.HasPrefix(programs[1], "llvm-strip"), programs[1])

	assert.FileExists(t, filepath.Join(b.Project.RootDir, "dist", "android", "java", "com", "rajveermalviya", "gosample", "GoSample.java"))
}

func TestBuildAllAndroid(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("no NDK toolchain for " + runtime.GOOS)
	}

	b, runner := newTestBuilder(t, androidBuildConfig)
	binding := filepath.Join(b.Project.RootDir, "ffi", "java", "GoSample.java")
	require.NoError(t, writeTestFile(binding, "class GoSample {}"))

	err := b.BuildAll(context.Background(), "android", true)
	require.NoError(t, err)

	assert.Len(t, runner.find("go"), 4)
	for _, abi := range []string{"arm64-v8a", "armeabi-v7a", "x86", "x86_64"} {
		assert.FileExists(t, filepath.Join(b.Project.RootDir, "dist", "android", "debug", "stripped", abi, "libgosample.so"), abi)
	}
	assert.FileExists(t, filepath.Join(b.Project.RootDir, "dist", "android", "java", "GoSample.java"))
}

func TestBuildAllResolvesNDKOnce(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("no NDK toolchain for " + runtime.GOOS)
	}

	b, runner := newTestBuilder(t, androidBuildConfig)
	require.NoError(t, writeTestFile(filepath.Join(b.Project.RootDir, "ffi", "java", "GoSample.java"), "class GoSample {}"))
	b.DownloadNDK = true

	var calls, running, maxRunning atomic.Int32
	b.FindNDK = func(ctx context.Context, download bool) (string, error) {
		calls.Add(1)
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}

		assert.True(t, download)
		// long enough for the other archs to reach the lookup
		time.Sleep(20 * time.Millisecond)
		return filepath.Join(b.Project.RootDir, "ndk"), nil
	}

	err := b.BuildAll(context.Background(), "android", false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), maxRunning.Load())
	assert.Len(t, runner.find("go"), 4)

	// later builds of the same Builder reuse the NDK
	err = b.Build(context.Background(), "android", "x86_64", false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuildNDKNotFound(t *testing.T) {
	b, runner := newTestBuilder(t, androidBuildConfig)
	b.FindNDK = func(ctx context.Context, download bool) (string, error) {
		return "", errors.New("no ndk")
	}

	err := b.Build(context.Background(), "android", "x86_64", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ndk")
	assert.Empty(t, runner.programs())
}

func TestBuildErrors(t *testing.T) {
	b, runner := newTestBuilder(t, "targets:\n  linux: {}\n")

	err := b.Build(context.Background(), "linux", "x86_64", false)
	assert.ErrorIs(t, err, ErrNoPackages)

	err = b.Build(context.Background(), "windows", "x86_64", false)
	assert.ErrorIs(t, err, ErrUnknownOS)

	err = b.BuildAll(context.Background(), "plan9", false)
	assert.ErrorIs(t, err, ErrUnknownOS)

	assert.Empty(t, runner.programs())
}

func TestBuildCompilerFailure(t *testing.T) {
	b, runner := newTestBuilder(t, linuxBuildConfig)
	runner.fail["go"] = errors.New("exit status 2")

	err := b.Build(context.Background(), "linux", "x86_64", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "./cmd/libgosample: exit status 2")
	assert.Empty(t, runner.find("objcopy"))
}

func TestAARInvalidBackend(t *testing.T) {
	b, _ := newTestBuilder(t, androidBuildConfig)

	_, err := b.AAR(AarOptions{Backend: "ant"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend ant")
}

func TestAARGradleMissingTemplate(t *testing.T) {
	b, _ := newTestBuilder(t, androidBuildConfig)

	_, err := b.AAR(AarOptions{Backend: "gradle", BuildGradle: "missing/build.gradle"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
