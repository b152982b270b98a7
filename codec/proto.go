package codec

import "google.golang.org/protobuf/proto"

// Proto returns a Codec for protobuf messages. newFunc must return a new,
// empty message that Unmarshal decodes into.
func Proto[T proto.Message](newFunc func() T) Codec[T] {
	if newFunc == nil {
		panic("[dendrite/codec.Proto] nil newFunc")
	}
	return protoCodec[T]{newFunc}
}

type protoCodec[T proto.Message] struct {
	newFunc func() T
}

func (protoCodec[T]) Marshal(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c protoCodec[T]) Unmarshal(b []byte) (T, error) {
	v := c.newFunc()
	err := proto.Unmarshal(b, v)
	return v, err
}
