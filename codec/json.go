package codec

import (
	"bytes"
	"encoding/json"
)

// JSON returns a Codec that uses encoding/json. Unknown fields are rejected
// when strict is enabled via JSONStrict.
func JSON[T any](opts ...JSONOption) Codec[T] {
	var c jsonCodec[T]
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

// JSONOption is an option for a JSON Codec.
type JSONOption func(*jsonConfig)

type jsonConfig struct {
	strict bool
}

// JSONStrict returns a JSONOption that makes decoding fail on unknown fields.
func JSONStrict() JSONOption {
	return func(cfg *jsonConfig) {
		cfg.strict = true
	}
}

type jsonCodec[T any] struct {
	cfg jsonConfig
}

func (jsonCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (c jsonCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(b))
	if c.cfg.strict {
		dec.DisallowUnknownFields()
	}
	err := dec.Decode(&v)
	return v, err
}
