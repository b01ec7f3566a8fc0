package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"saas-projection/pkg/models"
)

// LoadInputsFile decodes a YAML inputs document. Unknown keys are rejected so
// that a misspelt column does not silently read as zero.
func LoadInputsFile(path string) (*models.Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var in models.Inputs
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("parse inputs file %s: %w", path, err)
	}
	return &in, nil
}

// WriteInputsFile encodes in as YAML with the same keys LoadInputsFile reads.
func WriteInputsFile(path string, in *models.Inputs) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write inputs file: %w", err)
	}
	return nil
}
