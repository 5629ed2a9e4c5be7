package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Save writes the dataset as indented JSON.
func Save(d *Dataset, path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write dataset to %s: %w", path, err)
	}
	return nil
}

// Load reads a dataset previously written by Save.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset from %s: %w", path, err)
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dataset from %s: %w", path, err)
	}
	return &d, nil
}

// FileSource replays a saved dataset in place of a live fetch.
type FileSource struct {
	Path string
}

// Fetch loads the file. The username argument is only used to detect a
// mismatch with the stored dataset.
func (s FileSource) Fetch(_ context.Context, username string) (*Dataset, error) {
	d, err := Load(s.Path)
	if err != nil {
		return nil, err
	}
	if username != "" && d.Username != "" && d.Username != username {
		return nil, fmt.Errorf("dataset %s belongs to %q, not %q", s.Path, d.Username, username)
	}
	if d.Username == "" {
		d.Username = username
	}
	return d, nil
}
