package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ===============================
// SHARED COLUMN TYPES
// ===============================

// StringArray is a helper type for postgres text[] columns
type StringArray []string

// Scan implements sql.Scanner for StringArray
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}

	str = strings.Trim(str, "{}")
	if str == "" {
		*s = StringArray{}
		return nil
	}

	parts := strings.Split(str, ",")
	result := make(StringArray, 0, len(parts))
	for _, part := range parts {
		result = append(result, strings.Trim(strings.TrimSpace(part), `"`))
	}
	*s = result
	return nil
}

// Value implements driver.Valuer for StringArray
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	if len(s) == 0 {
		return "{}", nil
	}
	escaped := make([]string, len(s))
	for i, v := range s {
		escaped[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(escaped, ",") + "}", nil
}

// Contains reports whether the array holds the given element
func (s StringArray) Contains(elem string) bool {
	for _, v := range s {
		if v == elem {
			return true
		}
	}
	return false
}

// JSONMap is a helper type for postgres jsonb columns
type JSONMap map[string]interface{}

// Scan implements sql.Scanner for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}

	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// PaginationParams holds common list pagination inputs
type PaginationParams struct {
	Limit  int `json:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `json:"offset" validate:"omitempty,min=0"`
}

// Normalize clamps pagination values into a safe range
func (p *PaginationParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
