package stats

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Store holds the precomputed statistics table. It is populated once at
// startup and read-only afterwards, so lookups need no locking.
type Store struct {
	values map[string]any
}

// Load reads the statistics table from a YAML file of key/value pairs.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stats file: %w", err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &Store{values: values}, nil
}

// NewFromMap builds a store from an in-memory table. Used by tests.
func NewFromMap(m map[string]any) *Store {
	values := make(map[string]any, len(m))
	for k, v := range m {
		values[k] = v
	}
	return &Store{values: values}
}

// Lookup returns the value for key and whether it exists. A miss is a normal
// result, not an error.
func (s *Store) Lookup(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns the known statistic keys, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
