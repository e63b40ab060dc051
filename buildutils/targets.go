// Package buildutils cross-compiles libgosample for every supported platform
// and assembles the distribution tree: per-arch libraries, fat darwin
// libraries, xcframeworks and android archives.
package buildutils

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	ErrUnknownOS   = errors.New("unknown target os")
	ErrUnknownArch = errors.New("invalid arch")
	ErrNoPackages  = errors.New("no packages specified")
)

// DeploymentAssert names the Mach-O load command and key that must carry
// the minimum OS version of a darwin binary.
type DeploymentAssert struct {
	LoadCommand string
	VersionKey  string
	MinimumOS   string
}

type Target struct {
	OS   string
	Arch string

	GOOS   string
	GOARCH string
	GOARM  string

	// Dist is the directory name used for the arch in the distribution,
	// only android renames archs (to ABI names).
	Dist string
	// ClangTarget is the NDK clang target triple without the api level.
	ClangTarget string
	// StripPath is the objcopy used to split debug symbols on linux.
	StripPath string

	Env              map[string]EnvVar
	DeploymentAssert *DeploymentAssert
}

// DistArch is the arch directory name inside the distribution.
func (t Target) DistArch() string {
	if t.Dist != "" {
		return t.Dist
	}
	return t.Arch
}

type Platform struct {
	Archs     map[string]Target
	Env       map[string]EnvVar
	PreBuild  []string
	PostBuild []string
}

// LipoTargetOSes are merged into fat libraries by Lipo and into an
// xcframework by XCFramework.
var LipoTargetOSes = []string{"macos", "ios"}

func set(v string) EnvVar { return EnvVar{Value: v, Mode: EnvSet} }

func appendEnv(v string) EnvVar { return EnvVar{Value: v, Mode: EnvAppend} }

func crossCC(cc string) map[string]EnvVar {
	return map[string]EnvVar{"CC": set(cc)}
}

func darwinTarget(goos, goarch, deploymentEnv, minOS string) Target {
	clangArch := "arm64"
	if goarch == "amd64" {
		clangArch = "x86_64"
	}

	return Target{
		GOOS:             goos,
		GOARCH:           goarch,
		DeploymentAssert: &DeploymentAssert{LoadCommand: "LC_BUILD_VERSION", VersionKey: "minos", MinimumOS: minOS},
		Env: map[string]EnvVar{
			deploymentEnv: set(minOS),
			"CC":          set("clang -arch " + clangArch),
		},
	}
}

// Platforms is the global target table shared by every project.
var Platforms = map[string]Platform{
	"android": {
		Archs: map[string]Target{
			"x86_64":  {GOOS: "android", GOARCH: "amd64", Dist: "x86_64", ClangTarget: "x86_64-linux-android"},
			"aarch64": {GOOS: "android", GOARCH: "arm64", Dist: "arm64-v8a", ClangTarget: "aarch64-linux-android"},
			"i686":    {GOOS: "android", GOARCH: "386", Dist: "x86", ClangTarget: "i686-linux-android"},
			"armv7":   {GOOS: "android", GOARCH: "arm", GOARM: "7", Dist: "armeabi-v7a", ClangTarget: "armv7a-linux-androideabi"},
		},
		PostBuild: []string{"strip_android"},
	},
	"linux": {
		Archs: map[string]Target{
			"x86_64":  {GOOS: "linux", GOARCH: "amd64", StripPath: "/usr/bin/objcopy"},
			"aarch64": {GOOS: "linux", GOARCH: "arm64", StripPath: "/usr/bin/aarch64-linux-gnu-objcopy", Env: crossCC("aarch64-linux-gnu-gcc")},
			"i686":    {GOOS: "linux", GOARCH: "386", StripPath: "/usr/bin/i686-linux-gnu-objcopy", Env: crossCC("i686-linux-gnu-gcc")},
			"armv7":   {GOOS: "linux", GOARCH: "arm", GOARM: "7", StripPath: "/usr/bin/arm-linux-gnueabihf-objcopy", Env: crossCC("arm-linux-gnueabihf-gcc")},
			"armv5":   {GOOS: "linux", GOARCH: "arm", GOARM: "5", StripPath: "/usr/bin/arm-linux-gnueabi-objcopy", Env: crossCC("arm-linux-gnueabi-gcc")},
		},
	},
	"windows": {
		Archs: map[string]Target{
			"x86_64":  {GOOS: "windows", GOARCH: "amd64", Env: crossCC("x86_64-w64-mingw32-gcc")},
			"aarch64": {GOOS: "windows", GOARCH: "arm64", Env: crossCC("aarch64-w64-mingw32-clang")},
		},
	},
	"macos": {
		Archs: map[string]Target{
			"x86_64":  darwinTarget("darwin", "amd64", "MACOSX_DEPLOYMENT_TARGET", "11.0"),
			"aarch64": darwinTarget("darwin", "arm64", "MACOSX_DEPLOYMENT_TARGET", "11.0"),
		},
		Env: map[string]EnvVar{
			"CGO_CFLAGS":  appendEnv(" -mmacosx-version-min=11.0"),
			"CGO_LDFLAGS": appendEnv(" -mmacosx-version-min=11.0"),
		},
		PreBuild:  []string{"set_sdk"},
		PostBuild: []string{"assert_version"},
	},
	"ios": {
		Archs: map[string]Target{
			"aarch64": darwinTarget("ios", "arm64", "IPHONEOS_DEPLOYMENT_TARGET", "12.0"),
		},
		Env: map[string]EnvVar{
			"CGO_CFLAGS":  appendEnv(" -miphoneos-version-min=12.0"),
			"CGO_LDFLAGS": appendEnv(" -miphoneos-version-min=12.0"),
		},
		PreBuild:  []string{"set_sdk"},
		PostBuild: []string{"assert_version"},
	},
}

// OSes lists the supported target OSes, sorted.
func OSes() []string {
	oses := maps.Keys(Platforms)
	slices.Sort(oses)
	return oses
}

// Archs lists the archs of targetOS, sorted.
func Archs(targetOS string) []string {
	archs := maps.Keys(Platforms[targetOS].Archs)
	slices.Sort(archs)
	return archs
}

// NormalizeArch maps arch aliases to their table name.
func NormalizeArch(arch string) string {
	if arch == "arm64" {
		return "aarch64"
	}
	return arch
}

// CheckTarget resolves targetOS and arch in the global table.
func CheckTarget(targetOS, arch string) (Target, error) {
	platform, ok := Platforms[targetOS]
	if !ok {
		return Target{}, fmt.Errorf("%w '%s', expected [%s]", ErrUnknownOS, targetOS, strings.Join(OSes(), ", "))
	}

	arch = NormalizeArch(arch)
	t, ok := platform.Archs[arch]
	if !ok {
		return Target{}, fmt.Errorf("%w '%s' for '%s', expected [%s]", ErrUnknownArch, arch, targetOS, strings.Join(Archs(targetOS), ", "))
	}

	t.OS = targetOS
	t.Arch = arch
	return t, nil
}

func isDarwin(targetOS string) bool {
	return slices.Contains(LipoTargetOSes, targetOS)
}
