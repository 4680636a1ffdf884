// Package users loads and holds the static user table.
//
// The table comes from a comma-separated text file, one record per line:
//
//	id, password, msgDown, msgUp, fileDown, fileUp
//
// The first line is a header and is skipped. Boolean fields accept 0/1 and
// true/false case-insensitively. The table is immutable after load.
package users

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Perms are the per-user capability flags, combined with the global
// permission table at request time.
type Perms struct {
	MsgDown  bool
	MsgUp    bool
	FileDown bool
	FileUp   bool
}

// Record is one user's credentials and capabilities.
type Record struct {
	ID       string
	Password string
	Perms    Perms
}

// Table is the immutable user table keyed by user id.
type Table struct {
	byID map[string]*Record
	ids  []string
}

// Lookup returns the record for id, or nil if no such user exists.
func (t *Table) Lookup(id string) *Record {
	return t.byID[id]
}

// IDs returns the user ids in file order.
func (t *Table) IDs() []string {
	return t.ids
}

// Len returns the number of users.
func (t *Table) Len() int {
	return len(t.ids)
}

// NewTable builds a table from records. A duplicate id is an error.
func NewTable(records []*Record) (*Table, error) {
	t := &Table{byID: make(map[string]*Record, len(records))}
	for _, r := range records {
		if _, dup := t.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %q", r.ID)
		}
		t.byID[r.ID] = r
		t.ids = append(t.ids, r.ID)
	}
	return t, nil
}

// LoadFile reads a user table from the file at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("users file %s: %w", path, err)
	}
	return t, nil
}

// Load reads a user table from r.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []*Record
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return NewTable(records)
}

func parseLine(line string) (*Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 6 {
		return nil, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return nil, fmt.Errorf("empty user id")
	}

	var flags [4]bool
	for i, s := range fields[2:] {
		v, err := parseBool(s)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+3, err)
		}
		flags[i] = v
	}

	return &Record{
		ID:       fields[0],
		Password: fields[1],
		Perms: Perms{
			MsgDown:  flags[0],
			MsgUp:    flags[1],
			FileDown: flags[2],
			FileUp:   flags[3],
		},
	}, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
