package codec

import (
	"bytes"
	"encoding/gob"
)

// Gob returns a Codec that uses encoding/gob.
func Gob[T any]() Codec[T] {
	return gobCodec[T]{}
}

type gobCodec[T any] struct{}

func (gobCodec[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v)
	return v, err
}
