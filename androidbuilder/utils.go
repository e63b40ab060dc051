package androidbuilder

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AarSpec describes the inputs of an Android library archive.
type AarSpec struct {
	ProjectName string
	// PackageName is the java package of the bindings, e.g. "com.example.lib".
	PackageName string
	ArtifactID  string
	Version     string
	// BindingPath holds the java sources of the bindings.
	BindingPath string
	// LibPath holds one directory per abi, each containing the shared libraries.
	LibPath   string
	OutputDir string
}

func (s AarSpec) validate() error {
	var missing []string
	if s.ProjectName == "" {
		missing = append(missing, "project name")
	}
	if s.PackageName == "" {
		missing = append(missing, "package name")
	}
	if s.ArtifactID == "" {
		missing = append(missing, "artifact id")
	}
	if s.Version == "" {
		missing = append(missing, "version")
	}
	if s.BindingPath == "" {
		missing = append(missing, "binding path")
	}
	if s.LibPath == "" {
		missing = append(missing, "lib path")
	}
	if s.OutputDir == "" {
		missing = append(missing, "output dir")
	}

	if len(missing) > 0 {
		return errors.New("invalid aar spec: missing " + strings.Join(missing, ", "))
	}
	return nil
}

// FileName is the name of the produced archive.
func (s AarSpec) FileName() string {
	return s.ArtifactID + "-" + s.Version + ".aar"
}

type aarOptions struct {
	minSdk    string
	targetSdk string

	javacSourceCompatibility string
	javacTargetCompatibility string

	settingsGradle string
	buildGradle    string
	initGradle     string

	runner Runner
}

func defaultAarOptions() *aarOptions {
	return &aarOptions{
		minSdk:                   "21",
		targetSdk:                "34",
		javacSourceCompatibility: "8",
		javacTargetCompatibility: "8",
		runner:                   DefaultRunner,
	}
}

type AarOption func(*aarOptions)

func AarOptSdk(minSdk, targetSdk string) AarOption {
	return func(opts *aarOptions) {
		if minSdk != "" {
			opts.minSdk = minSdk
		}
		if targetSdk != "" {
			opts.targetSdk = targetSdk
		}
	}
}

func AarOptJavacCompatibility(source, target string) AarOption {
	return func(opts *aarOptions) {
		opts.javacSourceCompatibility = source
		opts.javacTargetCompatibility = target
	}
}

func AarOptRunner(r Runner) AarOption {
	return func(opts *aarOptions) {
		opts.runner = r
	}
}

// Use a custom settings.gradle instead of the generated one.
func GradleOptSettings(path string) AarOption {
	return func(opts *aarOptions) {
		opts.settingsGradle = path
	}
}

// Use a custom build.gradle template instead of the default one. The
// template sees the same fields as the default one, see buildGradleData.
func GradleOptBuildGradle(path string) AarOption {
	return func(opts *aarOptions) {
		opts.buildGradle = path
	}
}

// Pass an init script to gradle.
func GradleOptInitGradle(path string) AarOption {
	return func(opts *aarOptions) {
		opts.initGradle = path
	}
}

func xmlAttr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func libraryManifest(packageName, minSdk string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="` + xmlAttr(packageName) + `">
    <uses-sdk android:minSdkVersion="` + xmlAttr(minSdk) + `" />
</manifest>
`)
}

// findJniLibs maps every "<libPath>/<abi>/*.so" to "<prefix>/<abi>/<name>".
func findJniLibs(libPath, prefix string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(libPath, "*", "*.so"))
	if err != nil {
		return nil, fmt.Errorf("findJniLibs: %w", err)
	}

	if len(matches) == 0 {
		return nil, errors.New("findJniLibs: no shared libraries found in " + libPath)
	}

	files := make(map[string]string, len(matches))
	for _, match := range matches {
		files[match] = prefix + "/" + filepath.Base(filepath.Dir(match)) + "/" + filepath.Base(match)
	}

	return files, nil
}

func findSources(dir, ext string) ([]string, error) {
	var srces []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(path, ext) {
			srces = append(srces, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("findSources: %w", err)
	}

	return srces, nil
}

// writeZip creates zipPath holding the host files (PathOnHost -> PathInZip)
// and the in-memory entries (PathInZip -> content). Entries are written in
// sorted order so archives are reproducible.
func writeZip(zipPath string, files map[string]string, entries map[string][]byte) (err error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := zip.NewWriter(f)

	names := maps.Keys(entries)
	slices.Sort(names)
	for _, name := range names {
		dst, err := w.Create(name)
		if err != nil {
			return err
		}

		_, err = dst.Write(entries[name])
		if err != nil {
			return err
		}
	}

	hostPaths := maps.Keys(files)
	slices.Sort(hostPaths)
	for _, pathOnHost := range hostPaths {
		err = func() error {
			src, err := os.Open(pathOnHost)
			if err != nil {
				return err
			}
			defer src.Close()

			info, err := src.Stat()
			if err != nil {
				return err
			}

			fh, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}
			fh.Name = files[pathOnHost]
			fh.Method = zip.Deflate

			dst, err := w.CreateHeader(fh)
			if err != nil {
				return err
			}

			_, err = io.Copy(dst, src)
			return err
		}()
		if err != nil {
			return err
		}
	}

	return w.Close()
}
