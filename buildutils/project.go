package buildutils

import "path/filepath"

// Project resolves the directory layout of a build rooted at RootDir.
//
//	target/<os>_<arch>/<profile>/      go build outputs and checksums
//	dist/<os>/<profile>/<arch>/        per-arch artifacts
//	dist/darwin/<os>/<profile>/<arch>/ per-arch darwin artifacts
//	dist/darwin/<os>/<profile>/        fat darwin libraries
//	dist/darwin/<name>.xcframework
type Project struct {
	RootDir string
}

func profile(debug bool) string {
	if debug {
		return "debug"
	}
	return "release"
}

func (p Project) TargetDir() string {
	return filepath.Join(p.RootDir, "target")
}

// BuildPath is where go build writes file for t.
func (p Project) BuildPath(t Target, file string, debug bool) string {
	return filepath.Join(p.TargetDir(), t.OS+"_"+t.Arch, profile(debug), file)
}

func (p Project) DistributionDir() string {
	return filepath.Join(p.RootDir, "dist")
}

func (p Project) DarwinDistributionDir() string {
	return filepath.Join(p.DistributionDir(), "darwin")
}

func (p Project) BindingsDir() string {
	return filepath.Join(p.DistributionDir(), "bindings")
}

// DistributionPath returns path inside the distribution directory of
// targetOS and arch. arch is the distribution name, see Target.DistArch.
func (p Project) DistributionPath(targetOS, arch, path string, debug bool) string {
	dist := p.DistributionDir()
	if isDarwin(targetOS) {
		dist = p.DarwinDistributionDir()
	}

	return filepath.Join(dist, targetOS, profile(debug), arch, path)
}

// UniversalLibraryDir holds the fat libraries of targetOS.
func (p Project) UniversalLibraryDir(targetOS string, debug bool) string {
	return filepath.Join(p.DarwinDistributionDir(), targetOS, profile(debug))
}

func (p Project) XCFrameworkPath(name string, debug bool) string {
	if debug {
		name += "-Debug"
	}
	return filepath.Join(p.DarwinDistributionDir(), name+".xcframework")
}
