// Snapshot JSON codec. The same strict decoder backs file import, remote pull
// and the sqlite blob round-trip, so every path that accepts untyped input
// rejects it the same way.
package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatError reports a document that is syntactically JSON but does not have
// the snapshot shape: one or more of the required top-level keys is missing
// or null.
type FormatError struct {
	Missing []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid snapshot format: missing %s", strings.Join(e.Missing, ", "))
}

var requiredKeys = []string{"expenses", "incomes", "cdts"}

// DecodeSnapshot parses data as a full snapshot. All three record sequences
// must be present; a missing or null key yields a *FormatError and no partial
// result. Malformed JSON is returned wrapped, not as a FormatError.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}

	var missing []string
	for _, key := range requiredKeys {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Snapshot{}, &FormatError{Missing: missing}
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return normalized(s), nil
}

// EncodeSnapshot renders the compact wire form.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(normalized(s))
}

// EncodeSnapshotIndented renders the pretty-printed form used for file
// backups.
func EncodeSnapshotIndented(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(normalized(s), "", "  ")
}

func normalized(s Snapshot) Snapshot {
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	if s.Incomes == nil {
		s.Incomes = []Income{}
	}
	if s.CDTs == nil {
		s.CDTs = []CDT{}
	}
	return s
}
