package codec

import "fmt"

// Limit wraps another codec to enforce a maximum allowed payload size at
// Unmarshal time. Marshal is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized/malicious inputs coming from a
// shared cache or untrusted source.
type Limit struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec
	// MaxDecode is the maximum permitted length (in bytes) of the incoming
	// payload for Unmarshal. If payload length exceeds MaxDecode, Unmarshal
	// returns an error without invoking Inner.
	MaxDecode int
}

func (c Limit) Marshal(v any) ([]byte, error) { return c.Inner.Marshal(v) }

func (c Limit) Unmarshal(data []byte, out any) error {
	if c.MaxDecode > 0 && len(data) > c.MaxDecode {
		return fmt.Errorf("payload too large: %d > %d", len(data), c.MaxDecode)
	}
	return c.Inner.Unmarshal(data, out)
}
