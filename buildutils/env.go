package buildutils

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type EnvMode string

const (
	// EnvSet replaces the current value.
	EnvSet EnvMode = "set"
	// EnvAppend concatenates onto the current value.
	EnvAppend EnvMode = "append"
)

type EnvVar struct {
	Value string  `yaml:"value"`
	Mode  EnvMode `yaml:"mode"`
}

// UnmarshalYAML accepts either a mapping with value and mode, or a plain
// scalar which is shorthand for mode set.
func (e *EnvVar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Value = node.Value
		e.Mode = EnvSet
		return nil
	}

	type plain EnvVar
	var p plain
	err := node.Decode(&p)
	if err != nil {
		return err
	}
	if p.Mode == "" {
		p.Mode = EnvSet
	}

	*e = EnvVar(p)
	return e.validate()
}

func (e EnvVar) validate() error {
	switch e.Mode {
	case EnvSet, EnvAppend:
		return nil
	default:
		return fmt.Errorf("invalid env mode %q, expected %q or %q", e.Mode, EnvSet, EnvAppend)
	}
}

// Env is an environment keyed by variable name.
type Env map[string]string

// ParseEnv converts os.Environ style entries. Later duplicates win.
func ParseEnv(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// Apply applies layers in order.
func (env Env) Apply(layers ...map[string]EnvVar) {
	for _, layer := range layers {
		keys := maps.Keys(layer)
		slices.Sort(keys)

		for _, k := range keys {
			v := layer[k]
			switch v.Mode {
			case EnvAppend:
				env[k] += v.Value
			default:
				env[k] = v.Value
			}
		}
	}
}

// Environ returns the environment as sorted "KEY=value" entries.
func (env Env) Environ() []string {
	keys := maps.Keys(env)
	slices.Sort(keys)

	environ := make([]string, 0, len(keys))
	for _, k := range keys {
		environ = append(environ, k+"="+env[k])
	}
	return environ
}
