package codec

import "fmt"

// Bytes is an identity codec for values that are already raw byte slices.
// Marshal accepts []byte (or string) and returns the bytes unchanged;
// Unmarshal fills *[]byte, *string, or *any (as []byte). Anything else is a
// serialization failure.
type Bytes struct{}

func (Bytes) Marshal(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("bytes codec: cannot encode %T", v)
	}
}

func (Bytes) Unmarshal(data []byte, out any) error {
	switch o := out.(type) {
	case *[]byte:
		*o = data
		return nil
	case *string:
		*o = string(data)
		return nil
	case *any:
		*o = data
		return nil
	default:
		return fmt.Errorf("bytes codec: cannot decode into %T", out)
	}
}
