package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrCorruptState = errors.New("corrupt state: expected an object with a folders mapping")

// Export writes the whole store as {"folders": {...}}.
func (s *Store) Export(w io.Writer) error {
	folders, err := s.Snapshot()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(State{Folders: folders})
}

// Import replaces the store with the state read from r. A payload that does
// not decode to valid state is rejected and the store is left untouched.
func (s *Store) Import(r io.Reader) (Folders, error) {
	folders, err := DecodeState(r)
	if err != nil {
		return nil, err
	}
	if err := s.Replace(folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// DecodeState parses and validates an exported state document.
func DecodeState(r io.Reader) (Folders, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	raw, ok := doc["folders"]
	if !ok {
		return nil, ErrCorruptState
	}

	var folders Folders
	if err := json.Unmarshal(raw, &folders); err != nil || folders == nil {
		return nil, fmt.Errorf("%w: folders must map names to item lists", ErrCorruptState)
	}

	for name, items := range folders {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty folder name", ErrCorruptState)
		}
		seen := make(map[string]bool, len(items))
		for _, it := range items {
			if it.URL == "" {
				return nil, fmt.Errorf("%w: item without url in %q", ErrCorruptState, name)
			}
			if seen[it.URL] {
				return nil, fmt.Errorf("%w: duplicate url %q in %q", ErrCorruptState, it.URL, name)
			}
			seen[it.URL] = true
		}
		if items == nil {
			folders[name] = []Item{}
		}
	}
	return folders, nil
}
