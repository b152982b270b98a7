// Package codec provides the envelope that carries command payloads, responses
// and event data over the wire, and typed codecs that translate between Go
// values and the opaque bytes inside an envelope.
package codec

import (
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned when an envelope is decoded into a value of a
// different type than the one named in the envelope.
var ErrTypeMismatch = errors.New("type mismatch")

// A Codec marshals values of type T into bytes and back.
type Codec[T any] interface {
	// Marshal encodes v.
	Marshal(v T) ([]byte, error)

	// Unmarshal decodes b into a new T.
	Unmarshal(b []byte) (T, error)
}

// SerializedObject is the typed byte blob that carries a payload. Type is the
// dispatch key that handler registries use to find the decoder for Data.
type SerializedObject struct {
	Type     string
	Revision string
	Data     []byte
}

// Serialize encodes v using c and wraps the result in a SerializedObject of the
// given type.
func Serialize[T any](c Codec[T], typeName string, v T) (SerializedObject, error) {
	b, err := c.Marshal(v)
	if err != nil {
		return SerializedObject{}, fmt.Errorf("marshal %q: %w", typeName, err)
	}
	return SerializedObject{Type: typeName, Data: b}, nil
}

// Deserialize decodes the data of obj using c. If typeName is non-empty, it
// must match the type of obj.
func Deserialize[T any](c Codec[T], typeName string, obj SerializedObject) (T, error) {
	if typeName != "" && obj.Type != typeName {
		var zero T
		return zero, fmt.Errorf("%w: want %q, got %q", ErrTypeMismatch, typeName, obj.Type)
	}
	v, err := c.Unmarshal(obj.Data)
	if err != nil {
		return v, fmt.Errorf("unmarshal %q: %w", obj.Type, err)
	}
	return v, nil
}

// Clone returns a deep copy of obj.
func (obj SerializedObject) Clone() SerializedObject {
	if obj.Data != nil {
		obj.Data = append([]byte(nil), obj.Data...)
	}
	return obj
}

func (obj SerializedObject) String() string {
	return fmt.Sprintf("%s(%d bytes)", obj.Type, len(obj.Data))
}
