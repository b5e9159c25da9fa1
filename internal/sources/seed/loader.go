// Package seed loads the initial catalog and bootstrap accounts from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

// Loader reads a seed file, or the built-in catalog when no path is set.
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a seed loader. An empty path selects the built-in seed.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		lookup:   os.LookupEnv,
	}
}

// Load reads and parses the seed file.
func (l *Loader) Load() (File, error) {
	data := defaultSeed
	if l.filePath != "" {
		raw, err := os.ReadFile(l.filePath)
		if err != nil {
			return File{}, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = raw
	}

	data = l.expandVariables(data)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f, nil
}

var templateVar = regexp.MustCompile(`\{\{\s*([A-Z0-9_]+)\s*\}\}`)

// expandVariables replaces {{USSM_VAR_NAME}} with the environment value,
// or an empty string when unset. Passwords stay out of the file this way.
func (l *Loader) expandVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(templateVar.FindSubmatch(m)[1])
		v, _ := l.lookup(name)
		return []byte(v)
	})
}
