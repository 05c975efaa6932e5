package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseRequest decodes a YAML (or JSON) scene script.
func ParseRequest(data []byte) (*VideoRequest, error) {
	var req VideoRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse scene script: %w", err)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return &req, nil
}

// ReadRequest reads a scene script from a file.
func ReadRequest(path string) (*VideoRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRequest(data)
}

// WriteRequest writes a request to a YAML file.
func WriteRequest(req *VideoRequest, path string) error {
	data, err := yaml.Marshal(req)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
