package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// looseID accepts ids that models emit as strings or as bare numbers.
type looseID string

func (id *looseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = looseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = looseID(n.String())
	return nil
}

// uniqueID returns id, or id-2, id-3 ... when taken. Empty ids become clause-<n>.
func uniqueID(id string, n int, seen map[string]bool) string {
	if id == "" {
		id = "clause-" + strconv.Itoa(n)
	}
	candidate := id
	for i := 2; seen[candidate]; i++ {
		candidate = id + "-" + strconv.Itoa(i)
	}
	seen[candidate] = true
	return candidate
}
