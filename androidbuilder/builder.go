package androidbuilder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CustomAarBuilder packages an aar with javac and jar directly, without
// gradle or the android gradle plugin.
type CustomAarBuilder struct {
	JavaTools  JavaTools
	AndroidJar string

	opts *aarOptions
}

func NewCustomAarBuilder(autoDownloadPackages bool, opts ...AarOption) (*CustomAarBuilder, error) {
	options := defaultAarOptions()
	for _, opt := range opts {
		opt(options)
	}

	javaHome, err := getJavaHome()
	if err != nil {
		return nil, err
	}

	androidSdkRoot, licenses, err := GetAndroidSdkRoot()
	if err != nil {
		return nil, err
	}

	if !licenses {
		sdkmanager := filepath.Join(androidSdkRoot, "cmdline-tools", "latest", "bin", getName("sdkmanager"))
		return nil, errors.New("android sdk licenses not accepted, run \"" + sdkmanager + " --licenses\"")
	}

	platformDir, err := findAndroidPlatform(androidSdkRoot, options.targetSdk)
	if err != nil {
		if autoDownloadPackages {
			platformDir, err = downloadAndroidPlatform(androidSdkRoot, options.targetSdk)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	err = checkAndroidPlatform(platformDir)
	if err != nil {
		return nil, err
	}

	return &CustomAarBuilder{
		JavaTools: JavaTools{
			Javac: filepath.Join(javaHome, "bin", getName("javac")),
			Jar:   filepath.Join(javaHome, "bin", getName("jar")),
		},
		AndroidJar: filepath.Join(platformDir, "android.jar"),
		opts:       options,
	}, nil
}

// BuildAar compiles the bindings into classes.jar and zips it together with
// the shared libraries and a library manifest. It returns the aar path.
func (b *CustomAarBuilder) BuildAar(spec AarSpec) (string, error) {
	err := spec.validate()
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	intermediatesDir := filepath.Join(spec.OutputDir, "intermediates", spec.ArtifactID)
	err = os.RemoveAll(intermediatesDir)
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	classesJar, err := b.compileBindings(spec, intermediatesDir)
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	files, err := findJniLibs(spec.LibPath, "jni")
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}
	files[classesJar] = "classes.jar"

	aar := filepath.Join(spec.OutputDir, spec.FileName())
	err = writeZip(aar, files, map[string][]byte{
		"AndroidManifest.xml": libraryManifest(spec.PackageName, b.opts.minSdk),
		"R.txt":               {},
	})
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	return aar, nil
}

func (b *CustomAarBuilder) compileBindings(spec AarSpec, intermediatesDir string) (string, error) {
	srces, err := findSources(spec.BindingPath, ".java")
	if err != nil {
		return "", fmt.Errorf("compileBindings: %w", err)
	}
	if len(srces) == 0 {
		return "", errors.New("compileBindings: no java sources in " + spec.BindingPath)
	}

	classesDir := filepath.Join(intermediatesDir, "classes")
	err = os.MkdirAll(classesDir, 0755)
	if err != nil {
		return "", fmt.Errorf("compileBindings: %w", err)
	}

	{
		args := []string{
			"-source", b.opts.javacSourceCompatibility,
			"-target", b.opts.javacTargetCompatibility,
			"-bootclasspath", b.AndroidJar,
			"-d", classesDir,
		}
		args = append(args, srces...)

		err = b.opts.runner.Run(exec.Command(b.JavaTools.Javac, args...))
		if err != nil {
			return "", fmt.Errorf("compileBindings: %w", err)
		}
	}

	classesJar := filepath.Join(intermediatesDir, "classes.jar")
	err = b.opts.runner.Run(exec.Command(
		b.JavaTools.Jar,
		"--create",
		"--file", classesJar,
		"-C", classesDir,
		".",
	))
	if err != nil {
		return "", fmt.Errorf("compileBindings: %w", err)
	}

	return classesJar, nil
}
