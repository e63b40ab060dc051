package androidbuilder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// GetAndroidSdkRoot reads ANDROID_SDK_ROOT, falling back to ANDROID_HOME, and
// reports whether the sdk licenses were accepted.
func GetAndroidSdkRoot() (path string, licenses bool, err error) {
	path = os.Getenv("ANDROID_SDK_ROOT")
	if path == "" {
		path = os.Getenv("ANDROID_HOME")
	}
	if path == "" {
		return "", false, errors.New("getAndroidSdkRoot: env ANDROID_SDK_ROOT not set")
	}

	licenses, err = checkAndroidSdkRoot(path)
	if err != nil {
		return "", false, fmt.Errorf("getAndroidSdkRoot: %w", err)
	}

	return
}

func checkAndroidSdkRoot(androidSdkRoot string) (licenses bool, err error) {
	entries, err := os.ReadDir(androidSdkRoot)
	if err != nil {
		return false, fmt.Errorf("checkAndroidSdkRoot: %w", err)
	}

	var hasCmdlineTools bool

	for _, entry := range entries {
		switch entry.Name() {
		case "licenses":
			licenses = true
		case "cmdline-tools":
			hasCmdlineTools = true
		}
	}

	if hasCmdlineTools {
		_, err = os.Stat(filepath.Join(androidSdkRoot, "cmdline-tools", "latest", "bin", getName("sdkmanager")))
		if err != nil {
			return false, fmt.Errorf("checkAndroidSdkRoot: %w", err)
		}
	} else {
		return false, errors.New("checkAndroidSdkRoot: unable to find \"cmdline-tools\" in " + androidSdkRoot)
	}

	return licenses, nil
}

func findAndroidPlatform(androidSdkRoot, targetSdkVersion string) (string, error) {
	platforms := filepath.Join(androidSdkRoot, "platforms")
	entries, err := os.ReadDir(platforms)
	if err != nil {
		return "", fmt.Errorf("findAndroidPlatform: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			name := entry.Name()
			if name == "android-"+targetSdkVersion {
				return filepath.Join(platforms, name), nil
			}
		}
	}

	return "", errors.New("findAndroidPlatform: unable to find \"android-" + targetSdkVersion + "\" in " + platforms)
}

func downloadAndroidPlatform(androidSdkRoot, targetSdkVersion string) (string, error) {
	sdkmanager := filepath.Join(androidSdkRoot, "cmdline-tools", "latest", "bin", getName("sdkmanager"))
	cmd := exec.Command(sdkmanager, "platforms;android-"+targetSdkVersion)
	err := DefaultRunner.Run(cmd)
	if err != nil {
		return "", fmt.Errorf("downloadAndroidPlatform: %w", err)
	}

	return filepath.Join(androidSdkRoot, "platforms", "android-"+targetSdkVersion), nil
}

func checkAndroidPlatform(platformDir string) error {
	entries, err := os.ReadDir(platformDir)
	if err != nil {
		return fmt.Errorf("checkAndroidPlatform: %w", err)
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() {
			if entry.Name() == "android.jar" {
				return nil
			}
		}
	}

	return errors.New("checkAndroidPlatform: unable to find \"android.jar\" in " + platformDir)
}
