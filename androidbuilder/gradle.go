package androidbuilder

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/rajveermalviya/gosample/internal/fsutil"
)

// GradleBuilder packages an aar by generating a gradle project that applies
// the android library plugin and running assembleRelease on it.
type GradleBuilder struct {
	opts *aarOptions
}

func NewGradleBuilder(opts ...AarOption) (*GradleBuilder, error) {
	options := defaultAarOptions()
	for _, opt := range opts {
		opt(options)
	}

	for _, path := range []string{options.settingsGradle, options.buildGradle, options.initGradle} {
		if path == "" {
			continue
		}
		_, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("NewGradleBuilder: %w", err)
		}
	}

	return &GradleBuilder{opts: options}, nil
}

const defaultSettingsGradle = `pluginManagement {
    repositories {
        google()
        mavenCentral()
        gradlePluginPortal()
    }
}

dependencyResolutionManagement {
    repositories {
        google()
        mavenCentral()
    }
}

rootProject.name = '{{.ProjectName}}'
`

const defaultBuildGradle = `plugins {
    id 'com.android.library' version '8.2.2'
    id 'maven-publish'
}

android {
    namespace '{{.PackageName}}'
    compileSdk {{.TargetSdk}}

    defaultConfig {
        minSdk {{.MinSdk}}
    }
}

publishing {
    publications {
        release(MavenPublication) {
            groupId = '{{.PackageName}}'
            artifactId = '{{.ArtifactID}}'
            version = '{{.Version}}'

            afterEvaluate {
                from components.release
            }
        }
    }
}
`

type buildGradleData struct {
	ProjectName string
	PackageName string
	ArtifactID  string
	Version     string
	MinSdk      string
	TargetSdk   string
}

func renderGradleFile(name, customPath, fallback string, data buildGradleData) ([]byte, error) {
	text := fallback
	if customPath != "" {
		b, err := os.ReadFile(customPath)
		if err != nil {
			return nil, err
		}
		text = string(b)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ProjectDir is where BuildAar generates the gradle project for spec.
func (b *GradleBuilder) ProjectDir(spec AarSpec) string {
	return filepath.Join(spec.OutputDir, "gradle", spec.ProjectName)
}

func (b *GradleBuilder) BuildAar(spec AarSpec) (string, error) {
	err := spec.validate()
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	projectDir := b.ProjectDir(spec)
	err = b.generateProject(spec, projectDir)
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	args := []string{"assembleRelease"}
	if b.opts.initGradle != "" {
		args = append(args, "--init-script", b.opts.initGradle)
	}

	cmd := exec.Command(getName("gradle"), args...)
	cmd.Dir = projectDir
	err = b.opts.runner.Run(cmd)
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	built := filepath.Join(projectDir, "build", "outputs", "aar", spec.ProjectName+"-release.aar")
	_, err = os.Stat(built)
	if err != nil {
		return "", errors.New("BuildAar: unable to find built aar at " + built)
	}

	aar := filepath.Join(spec.OutputDir, spec.FileName())
	err = fsutil.CopyFile(built, aar)
	if err != nil {
		return "", fmt.Errorf("BuildAar: %w", err)
	}

	return aar, nil
}

func (b *GradleBuilder) generateProject(spec AarSpec, projectDir string) error {
	err := os.RemoveAll(projectDir)
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}

	mainDir := filepath.Join(projectDir, "src", "main")
	err = os.MkdirAll(mainDir, 0755)
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}

	data := buildGradleData{
		ProjectName: spec.ProjectName,
		PackageName: spec.PackageName,
		ArtifactID:  spec.ArtifactID,
		Version:     spec.Version,
		MinSdk:      b.opts.minSdk,
		TargetSdk:   b.opts.targetSdk,
	}

	settings, err := renderGradleFile("settings.gradle", b.opts.settingsGradle, defaultSettingsGradle, data)
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}
	buildGradle, err := renderGradleFile("build.gradle", b.opts.buildGradle, defaultBuildGradle, data)
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}

	files := map[string][]byte{
		filepath.Join(projectDir, "settings.gradle"):  settings,
		filepath.Join(projectDir, "build.gradle"):     buildGradle,
		filepath.Join(mainDir, "AndroidManifest.xml"): libraryManifest(spec.PackageName, b.opts.minSdk),
	}
	for path, content := range files {
		err = os.WriteFile(path, content, 0644)
		if err != nil {
			return fmt.Errorf("generateProject: %w", err)
		}
	}

	err = fsutil.CopyTree(spec.BindingPath, filepath.Join(mainDir, "java"))
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}

	libs, err := findJniLibs(spec.LibPath, "jniLibs")
	if err != nil {
		return fmt.Errorf("generateProject: %w", err)
	}
	for pathOnHost, pathInProject := range libs {
		err = fsutil.CopyFile(pathOnHost, filepath.Join(mainDir, filepath.FromSlash(pathInProject)))
		if err != nil {
			return fmt.Errorf("generateProject: %w", err)
		}
	}

	return nil
}
