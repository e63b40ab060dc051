package buildutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPaths(t *testing.T) {
	p := Project{RootDir: "/src"}

	android, err := CheckTarget("android", "aarch64")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/src", "target", "android_aarch64", "release", "libgosample.so"), p.BuildPath(android, "libgosample.so", false))
	assert.Equal(t, filepath.Join("/src", "target", "android_aarch64", "debug", "libgosample.so"), p.BuildPath(android, "libgosample.so", true))
	assert.Equal(t, filepath.Join("/src", "dist", "android", "release", "arm64-v8a", "libgosample.so"), p.DistributionPath("android", android.DistArch(), "libgosample.so", false))
	assert.Equal(t, filepath.Join("/src", "dist", "darwin", "ios", "debug", "aarch64"), p.DistributionPath("ios", "aarch64", "", true))
	assert.Equal(t, filepath.Join("/src", "dist", "darwin", "macos", "release"), p.UniversalLibraryDir("macos", false))
	assert.Equal(t, filepath.Join("/src", "dist", "darwin", "GoSample.xcframework"), p.XCFrameworkPath("GoSample", false))
	assert.Equal(t, filepath.Join("/src", "dist", "darwin", "GoSample-Debug.xcframework"), p.XCFrameworkPath("GoSample", true))
	assert.Equal(t, filepath.Join("/src", "dist", "bindings"), p.BindingsDir())
}

func TestUpdateChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libgosample.so")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	changed, sum, old, err := updateChecksum(path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, old)
	assert.Len(t, sum, 64)

	recorded, err := os.ReadFile(path + ".sha256")
	require.NoError(t, err)
	assert.Equal(t, sum, string(recorded))

	changed, sum2, old, err := updateChecksum(path)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, sum, sum2)
	assert.Equal(t, sum, old)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	changed, sum3, old, err := updateChecksum(path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, sum, sum3)
	assert.Equal(t, sum, old)
}

func TestUpdateChecksumMissingFile(t *testing.T) {
	_, _, _, err := updateChecksum(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
