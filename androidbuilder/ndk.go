package androidbuilder

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

func HasNdk(androidSdkRoot string) bool {
	entries, err := os.ReadDir(androidSdkRoot)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.IsDir() && entry.Name() == "ndk" {
			return true
		}
	}

	return false
}

func FindLatestVersionOfNdkInstalled(androidSdkRoot string) string {
	entries, err := os.ReadDir(filepath.Join(androidSdkRoot, "ndk"))
	if err != nil {
		return ""
	}

	if len(entries) == 0 {
		return ""
	}

	entry := entries[len(entries)-1]
	dir := entry.Name()

	return filepath.Join(androidSdkRoot, "ndk", dir)
}

// ndkVersion should be "major.minor.micro" not "ndk;major.minor.micro"
func DownloadNdk(androidSdkRoot, version string) error {
	sdkmanager := filepath.Join(androidSdkRoot, "cmdline-tools", "latest", "bin", getName("sdkmanager"))
	cmd := exec.Command(sdkmanager, "ndk;"+version)
	err := DefaultRunner.Run(cmd)
	if err != nil {
		return fmt.Errorf("DownloadNdk: %w", err)
	}

	return nil
}

// FindNdk locates an NDK, preferring ANDROID_NDK_HOME and ANDROID_NDK_ROOT
// over the newest NDK installed in the Android SDK. When download is set and
// the SDK has no NDK, the latest release is installed through sdkmanager.
func FindNdk(ctx context.Context, download bool) (string, error) {
	for _, env := range []string{"ANDROID_NDK_HOME", "ANDROID_NDK_ROOT"} {
		if dir := os.Getenv(env); dir != "" {
			if _, err := os.Stat(dir); err != nil {
				return "", fmt.Errorf("FindNdk: invalid %s: %w", env, err)
			}
			return dir, nil
		}
	}

	androidSdkRoot, _, err := GetAndroidSdkRoot()
	if err != nil {
		return "", fmt.Errorf("FindNdk: %w", err)
	}

	if !HasNdk(androidSdkRoot) && download {
		latestVersion, err := FindLatestNdkVersion(ctx)
		if err != nil {
			return "", fmt.Errorf("FindNdk: %w", err)
		}

		err = DownloadNdk(androidSdkRoot, latestVersion)
		if err != nil {
			return "", fmt.Errorf("FindNdk: %w", err)
		}
	}

	ndkDir := FindLatestVersionOfNdkInstalled(androidSdkRoot)
	if ndkDir == "" {
		return "", errors.New("FindNdk: unable to find ndk dir in " + androidSdkRoot)
	}

	return ndkDir, nil
}

func toolchainOS() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return "windows-x86_64", nil
	case "darwin":
		return "darwin-x86_64", nil
	case "linux":
		return "linux-x86_64", nil
	default:
		return "", errors.New("unsupported host GOOS " + runtime.GOOS)
	}
}

// ToolchainDir returns the prebuilt llvm toolchain directory of the NDK for
// the host platform.
func ToolchainDir(ndkDir string) (string, error) {
	hostOS, err := toolchainOS()
	if err != nil {
		return "", fmt.Errorf("ToolchainDir: %w", err)
	}

	return filepath.Join(ndkDir, "toolchains", "llvm", "prebuilt", hostOS), nil
}

// CompilerEnv returns the values for CC and CXX when cross compiling cgo code
// for clangTarget (e.g. "aarch64-linux-android") with the given min sdk.
func CompilerEnv(ndkDir, clangTarget, minSdk string) (cc string, cxx string, err error) {
	toolchain, err := ToolchainDir(ndkDir)
	if err != nil {
		return "", "", fmt.Errorf("CompilerEnv: %w", err)
	}

	clang := filepath.Join(toolchain, "bin", "clang")
	sysroot := filepath.Join(toolchain, "sysroot")

	flags := " --target=" + clangTarget + minSdk + " --gcc-toolchain=" + toolchain + " --sysroot=" + sysroot

	return clang + flags, clang + "++" + flags, nil
}

// LlvmStrip returns the path of llvm-strip shipped with the NDK.
func LlvmStrip(ndkDir string) (string, error) {
	toolchain, err := ToolchainDir(ndkDir)
	if err != nil {
		return "", fmt.Errorf("LlvmStrip: %w", err)
	}

	return filepath.Join(toolchain, "bin", getName("llvm-strip")), nil
}

var repositoryURL = "https://dl.google.com/android/repository/repository2-1.xml"

// FindLatestNdkVersion returns the newest non-preview NDK release listed in
// the Android repository manifest, as "major.minor.micro".
func FindLatestNdkVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, repositoryURL, nil)
	if err != nil {
		return "", fmt.Errorf("FindLatestNdkVersion: %w", err)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("FindLatestNdkVersion: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("FindLatestNdkVersion: unexpected status %s", res.Status)
	}

	var repo struct {
		XMLName       xml.Name `xml:"sdk-repository"`
		RemotePackage []struct {
			Path     string `xml:"path,attr"`
			Revision struct {
				Major   string `xml:"major"`
				Minor   string `xml:"minor"`
				Micro   string `xml:"micro"`
				Preview string `xml:"preview"`
			} `xml:"revision"`
		} `xml:"remotePackage"`
	}

	err = xml.NewDecoder(res.Body).Decode(&repo)
	if err != nil {
		return "", fmt.Errorf("FindLatestNdkVersion: %w", err)
	}

	for _, pkg := range repo.RemotePackage {
		// skip release candidates or beta releases
		if pkg.Revision.Preview != "" {
			continue
		}

		// assume first hit is latest one
		// since xml should already be in sorted form
		if strings.HasPrefix(pkg.Path, "ndk;") {
			return pkg.Revision.Major + "." + pkg.Revision.Minor + "." + pkg.Revision.Micro, nil
		}
	}

	return "", errors.New("FindLatestNdkVersion: unable to find latest version for ndk")
}
