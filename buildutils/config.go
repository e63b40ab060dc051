package buildutils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "gosample.yaml"

type ArchConfig struct {
	Env map[string]EnvVar `yaml:"env"`
}

// TargetConfig is the project configuration of one target OS.
type TargetConfig struct {
	// Packages maps a go main package to the file name of its build output,
	// e.g. "./cmd/libgosample": "libgosample.so".
	Packages map[string]string `yaml:"packages"`
	// BuildArgs are passed to every `go build`.
	BuildArgs []string `yaml:"build_args"`
	// BuildMode overrides the go -buildmode, by default c-archive for
	// ".a" outputs and c-shared otherwise.
	BuildMode string                `yaml:"buildmode"`
	Env       map[string]EnvVar     `yaml:"env"`
	Archs     map[string]ArchConfig `yaml:"archs"`
	PreBuild  []string              `yaml:"pre_build"`
	PostBuild []string              `yaml:"post_build"`
	// BindingSrc is copied into BindingDest after every build, both
	// relative to the project root.
	BindingSrc  string `yaml:"binding_src"`
	BindingDest string `yaml:"binding_dest"`
	// MinSdk is the android api level passed to the NDK clang.
	MinSdk string `yaml:"min_sdk"`
}

type Config struct {
	// Name of the library, used for headers and module maps.
	Name          string                  `yaml:"name"`
	FrameworkName string                  `yaml:"framework_name"`
	Targets       map[string]TargetConfig `yaml:"targets"`
}

// LoadConfig reads and validates a YAML project configuration.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}

	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %s: %w", filepath.Base(path), err)
	}

	return cfg, nil
}

// ParseConfig decodes a YAML project configuration. Unknown fields are
// rejected.
func ParseConfig(b []byte) (*Config, error) {
	var cfg Config

	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	err := d.Decode(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = "gosample"
	}
	if cfg.FrameworkName == "" {
		cfg.FrameworkName = cfg.Name
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

var buildModes = []string{"c-shared", "c-archive", "exe", "default"}

func (c *Config) Validate() error {
	var problems []string

	for _, targetOS := range c.OSes() {
		tc := c.Targets[targetOS]

		if _, ok := Platforms[targetOS]; !ok {
			problems = append(problems, fmt.Sprintf("%s: %v", targetOS, ErrUnknownOS))
			continue
		}

		for arch := range tc.Archs {
			if _, err := CheckTarget(targetOS, arch); err != nil {
				problems = append(problems, err.Error())
			}
		}

		if tc.BuildMode != "" && !slices.Contains(buildModes, tc.BuildMode) {
			problems = append(problems, fmt.Sprintf("%s: invalid buildmode %q", targetOS, tc.BuildMode))
		}

		for _, name := range append(slices.Clone(tc.PreBuild), tc.PostBuild...) {
			if _, ok := hooks[name]; !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown hook %q", targetOS, name))
			}
		}

		if tc.MinSdk != "" {
			if n, err := strconv.Atoi(tc.MinSdk); err != nil || n <= 0 {
				problems = append(problems, fmt.Sprintf("%s: min_sdk %q is not an api level", targetOS, tc.MinSdk))
			}
		}

		if (tc.BindingSrc == "") != (tc.BindingDest == "") {
			problems = append(problems, targetOS+": binding_src and binding_dest must be set together")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// OSes lists the configured target OSes, sorted.
func (c *Config) OSes() []string {
	oses := maps.Keys(c.Targets)
	slices.Sort(oses)
	return oses
}

// Target returns the configuration of targetOS.
func (c *Config) Target(targetOS string) (TargetConfig, error) {
	tc, ok := c.Targets[targetOS]
	if !ok {
		return TargetConfig{}, fmt.Errorf("%w: %s is not configured for this project", ErrUnknownOS, targetOS)
	}
	return tc, nil
}

// sortedPackages returns the configured package paths in a stable order.
func (tc TargetConfig) sortedPackages() []string {
	pkgs := maps.Keys(tc.Packages)
	slices.Sort(pkgs)
	return pkgs
}

// Files returns the build output file names, ordered by package path.
func (tc TargetConfig) Files() []string {
	files := make([]string, 0, len(tc.Packages))
	for _, pkg := range tc.sortedPackages() {
		files = append(files, tc.Packages[pkg])
	}
	return files
}

func (tc TargetConfig) buildMode(file string) string {
	if tc.BuildMode != "" {
		return tc.BuildMode
	}
	if filepath.Ext(file) == ".a" {
		return "c-archive"
	}
	return "c-shared"
}

func (tc TargetConfig) minSdk() string {
	if tc.MinSdk != "" {
		return tc.MinSdk
	}
	return "21"
}

func (tc TargetConfig) archEnv(arch string) map[string]EnvVar {
	for name, ac := range tc.Archs {
		if NormalizeArch(name) == arch {
			return ac.Env
		}
	}
	return nil
}
