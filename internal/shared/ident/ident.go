// Package ident provides identifiers for entries nested inside JSON documents
// (tasks, products, line items, history entries).
package ident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is a document-local identifier. Older rows carry numeric ids (creation
// timestamps), newer ones carry strings; both decode to the same form.
type ID string

// New returns a collision-resistant identifier.
func New() ID {
	return ID(strings.ReplaceAll(uuid.New().String(), "-", "")[:32])
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ident: invalid id %s", string(data))
	}
	*id = ID(n.String())
	return nil
}

// Contains reports whether ids holds id.
func Contains(ids []ID, id ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns ids minus id, preserving order.
func Without(ids []ID, id ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
