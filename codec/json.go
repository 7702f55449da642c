package codec

import "encoding/json"

// JSON is the default codec. The zero value is ready to use.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, out any) error { return json.Unmarshal(data, out) }
