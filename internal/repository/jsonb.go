package repository

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// marshalJSONB serializes a structured field for a jsonb column. Nil or
// empty values are stored as NULL so the scanners can keep zero values.
func marshalJSONB(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal jsonb column")
	}
	if string(raw) == "null" || string(raw) == "{}" || string(raw) == "[]" {
		return nil, nil
	}
	return raw, nil
}

func unmarshalJSONB(raw []byte, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, dest), "unmarshal jsonb column")
}
