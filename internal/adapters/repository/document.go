package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/alscreen/internal/domain/state"
)

// FormatVersion is the version of the state document written by this
// package. Older versions are read, newer ones are rejected.
const FormatVersion = 1

type document struct {
	FormatVersion int `json:"format_version"`
	state.Snapshot
}

// Encode serializes st as an indented JSON document. The output depends only
// on the state content.
func Encode(st *state.State) ([]byte, error) {
	data, err := json.MarshalIndent(document{FormatVersion: FormatVersion, Snapshot: st.Snapshot()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a JSON state document.
func Decode(data []byte) (*state.State, error) {
	var header struct {
		FormatVersion int `json:"format_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := checkVersion(header.FormatVersion); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	st, err := state.FromSnapshot(doc.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return st, nil
}

func checkVersion(v int) error {
	if v < 1 || v > FormatVersion {
		return fmt.Errorf("%w: %d (supported: 1..%d)", ErrUnsupportedVersion, v, FormatVersion)
	}
	return nil
}
