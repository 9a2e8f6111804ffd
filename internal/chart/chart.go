// Package chart loads a chart of accounts from YAML and seeds it into the
// engine: ledgers first, then journals assigned to them.
package chart

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sheikh-saqib/double-entry-ledger/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultChart []byte

// Chart is a set of ledgers, each listing the journals that belong to it.
type Chart struct {
	Ledgers []LedgerSpec `yaml:"ledgers"`
}

type LedgerSpec struct {
	Name     string            `yaml:"name"`
	Type     models.LedgerType `yaml:"type"`
	Journals []string          `yaml:"journals,omitempty"`
}

// Default returns the built-in company chart.
func Default() Chart {
	c, err := Parse(bytes.NewReader(defaultChart))
	if err != nil {
		panic(fmt.Sprintf("embedded chart is invalid: %v", err))
	}
	return c
}

// Load reads a chart file.
func Load(path string) (Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return Chart{}, fmt.Errorf("failed to open chart: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a chart. Unknown keys are rejected.
func Parse(r io.Reader) (Chart, error) {
	var c Chart
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Chart{}, fmt.Errorf("failed to decode chart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Chart{}, err
	}
	return c, nil
}

// Validate checks names and types. Journal names must be unique across the
// chart because seeding finds existing journals by name.
func (c Chart) Validate() error {
	if len(c.Ledgers) == 0 {
		return fmt.Errorf("chart has no ledgers")
	}
	ledgers := make(map[string]bool)
	journals := make(map[string]bool)
	for i, l := range c.Ledgers {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return fmt.Errorf("ledgers[%d]: name is required", i)
		}
		if !l.Type.Valid() {
			return fmt.Errorf("ledgers[%d] %q: unknown type %q", i, name, l.Type)
		}
		key := name + "/" + string(l.Type)
		if ledgers[key] {
			return fmt.Errorf("ledgers[%d]: %q (%s) listed twice", i, name, l.Type)
		}
		ledgers[key] = true

		for _, j := range l.Journals {
			j = strings.TrimSpace(j)
			if j == "" {
				return fmt.Errorf("ledgers[%d] %q: empty journal name", i, name)
			}
			if journals[j] {
				return fmt.Errorf("journal %q listed twice", j)
			}
			journals[j] = true
		}
	}
	return nil
}
