package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf serializes proto.Message values. Marshal rejects anything that is
// not a proto.Message; Unmarshal requires the destination to be one too.
// The zero value is ready to use.
type Protobuf struct{}

func (Protobuf) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("protobuf codec: %T does not implement proto.Message", v)
	}
	return proto.Marshal(m)
}

func (Protobuf) Unmarshal(data []byte, out any) error {
	m, ok := out.(proto.Message)
	if !ok {
		return fmt.Errorf("protobuf codec: %T does not implement proto.Message", out)
	}
	return proto.Unmarshal(data, m)
}
