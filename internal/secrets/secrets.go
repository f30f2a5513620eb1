// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Recognised key files: openai-api-key, anthropic-api-key and
// semantic-scholar-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Key files read by paper-explorer.
const (
	OpenAIKey          = "openai-api-key"
	AnthropicKey       = "anthropic-api-key"
	SemanticScholarKey = "semantic-scholar-api-key"
)

// Set is the result of loading a secrets directory.
type Set struct {
	values map[string]string

	// Unreadable lists files that exist but could not be read.
	Unreadable []string
}

// Get returns the secret stored under key, or "".
func (s Set) Get(key string) string { return s.values[key] }

// Names returns the loaded key names, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded secrets.
func (s Set) Len() int { return len(s.values) }

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty Set. Dotfiles, subdirectories and empty files are
// skipped; unreadable files are recorded in Set.Unreadable.
func Load(dir string) (Set, error) {
	set := Set{values: map[string]string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return Set{}, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			set.Unreadable = append(set.Unreadable, name)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			set.values[name] = value
		}
	}

	return set, nil
}
