// Package jsonb holds the Value/Scan plumbing shared by every document type
// stored in a JSON column.
package jsonb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value encodes v for a JSON column.
func Value(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON column value into dest. NULL leaves dest untouched.
func Scan(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// JSONB free-form JSON object
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return Value(map[string]interface{}(j))
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	m := map[string]interface{}{}
	if err := Scan(value, &m); err != nil {
		return err
	}
	*j = m
	return nil
}
