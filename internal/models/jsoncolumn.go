package models

import (
	"database/sql/driver"
	"encoding/json"
	"log/slog"

	"github.com/zheruizz/another.ai-app/internal/errors"
)

// Traits is the free-form attribute bag of a persona, stored as a JSON column.
type Traits map[string]any

// IDList is a list of identifiers stored as a JSON column.
type IDList []int64

// RationaleClusters is stored as a JSON column.
type RationaleClusters []RationaleCluster

func (t Traits) Value() (driver.Value, error) {
	return marshalColumn(t, "{}")
}

func (t *Traits) Scan(src any) error {
	return unmarshalColumn(src, t)
}

func (l IDList) Value() (driver.Value, error) {
	return marshalColumn(l, "[]")
}

func (l *IDList) Scan(src any) error {
	return unmarshalColumn(src, l)
}

func (c RationaleClusters) Value() (driver.Value, error) {
	return marshalColumn(c, "[]")
}

func (c *RationaleClusters) Scan(src any) error {
	return unmarshalColumn(src, c)
}

func marshalColumn[T any](v T, empty string) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal JSON column")
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalColumn(src any, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.New("unsupported JSON column source", slog.Any("src", src))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return errors.Wrap(err, "unmarshal JSON column")
	}
	return nil
}
