package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/evidra/evidra/helper"
)

// Metadata is free-form per-chunk metadata, stored as JSONB when the chunk is
// persisted to PostgreSQL.
type Metadata map[string]interface{}

// Value implements driver.Valuer for JSONB storage.
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval. A NULL column scans to an
// empty map.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if existing, ok := value.(Metadata); ok {
		*m = existing
		return nil
	}

	data, ok := value.([]byte)
	if !ok {
		return helper.NewError("scanning metadata", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(data, m)
}
