// Package manifest records what each pipeline invocation read, wrote,
// and was configured with, as a JSON file per run.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manifest describes one pipeline invocation.
type Manifest struct {
	Tool        string                 `json:"tool"`
	Timestamp   time.Time              `json:"timestamp"`
	InputFiles  []string               `json:"input_files"`
	OutputFiles []string               `json:"output_files"`
	RowCounts   map[string]int         `json:"row_counts"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// New creates a manifest stamped with the current time.
func New(tool string) *Manifest {
	return &Manifest{
		Tool:       tool,
		Timestamp:  time.Now(),
		RowCounts:  map[string]int{},
		Parameters: map[string]interface{}{},
	}
}

// Write stores the manifest as <tool>_<timestamp>.json under dir,
// creating the directory as needed, and returns the written path.
func Write(m *Manifest, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create runs directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", m.Tool, m.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}

// ReadLatest loads the most recent manifest for a tool from dir.
// Returns os.ErrNotExist if none is present.
func ReadLatest(dir, tool string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var candidates []string
	prefix := tool + "_"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return nil, os.ErrNotExist
	}

	// Timestamped names sort chronologically.
	sort.Strings(candidates)
	path := filepath.Join(dir, candidates[len(candidates)-1])

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
