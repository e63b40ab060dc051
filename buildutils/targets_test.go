package buildutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSes(t *testing.T) {
	assert.Equal(t, []string{"android", "ios", "linux", "macos", "windows"}, OSes())
}

func TestArchs(t *testing.T) {
	assert.Equal(t, []string{"aarch64", "armv7", "i686", "x86_64"}, Archs("android"))
	assert.Equal(t, []string{"aarch64", "armv5", "armv7", "i686", "x86_64"}, Archs("linux"))
	assert.Equal(t, []string{"aarch64"}, Archs("ios"))
	assert.Empty(t, Archs("plan9"))
}

func TestCheckTarget(t *testing.T) {
	tests := []struct {
		os, arch   string
		goos       string
		goarch     string
		goarm      string
		distArch   string
		normalized string
	}{
		{os: "android", arch: "aarch64", goos: "android", goarch: "arm64", distArch: "arm64-v8a", normalized: "aarch64"},
		{os: "android", arch: "arm64", goos: "android", goarch: "arm64", distArch: "arm64-v8a", normalized: "aarch64"},
		{os: "android", arch: "armv7", goos: "android", goarch: "arm", goarm: "7", distArch: "armeabi-v7a", normalized: "armv7"},
		{os: "android", arch: "i686", goos: "android", goarch: "386", distArch: "x86", normalized: "i686"},
		{os: "linux", arch: "armv5", goos: "linux", goarch: "arm", goarm: "5", distArch: "armv5", normalized: "armv5"},
		{os: "macos", arch: "x86_64", goos: "darwin", goarch: "amd64", distArch: "x86_64", normalized: "x86_64"},
		{os: "ios", arch: "arm64", goos: "ios", goarch: "arm64", distArch: "aarch64", normalized: "aarch64"},
		{os: "windows", arch: "x86_64", goos: "windows", goarch: "amd64", distArch: "x86_64", normalized: "x86_64"},
	}

	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			target, err := CheckTarget(tt.os, tt.arch)
			require.NoError(t, err)

			assert.Equal(t, tt.os, target.OS)
			assert.Equal(t, tt.normalized, target.Arch)
			assert.Equal(t, tt.goos, target.GOOS)
			assert.Equal(t, tt.goarch, target.GOARCH)
			assert.Equal(t, tt.goarm, target.GOARM)
			assert.Equal(t, tt.distArch, target.DistArch())
		})
	}
}

func TestCheckTargetInvalid(t *testing.T) {
	_, err := CheckTarget("plan9", "x86_64")
	require.ErrorIs(t, err, ErrUnknownOS)
	assert.Contains(t, err.Error(), "android, ios, linux, macos, windows")

	_, err = CheckTarget("ios", "x86_64")
	require.ErrorIs(t, err, ErrUnknownArch)
	assert.Contains(t, err.Error(), "expected [aarch64]")
}

func TestDarwinTargetsAssertDeployment(t *testing.T) {
	for _, targetOS := range LipoTargetOSes {
		for _, arch := range Archs(targetOS) {
			target, err := CheckTarget(targetOS, arch)
			require.NoError(t, err)
			require.NotNil(t, target.DeploymentAssert, "%s/%s", targetOS, arch)
			assert.Equal(t, "LC_BUILD_VERSION", target.DeploymentAssert.LoadCommand)
		}
	}

	target, err := CheckTarget("linux", "x86_64")
	require.NoError(t, err)
	assert.Nil(t, target.DeploymentAssert)
}

func TestPlatformHooksExist(t *testing.T) {
	for name, p := range Platforms {
		for _, hook := range append(append([]string{}, p.PreBuild...), p.PostBuild...) {
			assert.Contains(t, hooks, hook, name)
		}
	}
}
