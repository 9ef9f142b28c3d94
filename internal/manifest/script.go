package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script step operations.
const (
	OpBegin  = "begin"
	OpExpect = "expect"
	OpEnd    = "end"
	OpUnwind = "unwind"
)

// Step is one dialog engine event in a turn script.
type Step struct {
	Op         string   `yaml:"op"`
	Dialog     string   `yaml:"dialog"`
	Locale     string   `yaml:"locale"`
	Properties []string `yaml:"properties"`
}

// Script is an ordered sequence of begin/expect/end/unwind events used to
// drive the context stack in the simulator.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript reads and parses a turn script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest.LoadScript: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("manifest.LoadScript: %s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes and validates a turn script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpBegin, OpExpect, OpEnd:
			if step.Dialog == "" {
				return nil, fmt.Errorf("step %d: op %q requires a dialog id", i+1, step.Op)
			}
		case OpUnwind:
			// no dialog
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
		if step.Op == OpExpect && len(step.Properties) == 0 {
			return nil, fmt.Errorf("step %d: expect requires at least one property", i+1)
		}
	}
	return &s, nil
}
