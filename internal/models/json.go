package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is free-form metadata stored as jsonb
type JSON map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(j))
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSON column")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = m
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]interface{}(j))
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("nil pointer")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = m
	return nil
}
