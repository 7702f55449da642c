package codec

// Codec turns cache values into bytes and back. The facade stores whatever
// a caller hands it, so both directions work on any: Marshal receives the
// value, Unmarshal fills the pointer it is given.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, out any) error
}
