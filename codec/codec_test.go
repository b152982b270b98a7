package codec_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type mockData struct {
	A string
	B int
}

func TestJSON(t *testing.T) {
	c := codec.JSON[mockData]()

	want := mockData{A: "foo", B: 3}
	b, err := c.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	got, err := c.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if !cmp.Equal(want, got) {
		t.Fatalf("decoded data differs from original:\n%s", cmp.Diff(want, got))
	}
}

func TestJSONStrict(t *testing.T) {
	c := codec.JSON[mockData](codec.JSONStrict())

	if _, err := c.Unmarshal([]byte(`{"A":"foo","C":true}`)); err == nil {
		t.Fatalf("Unmarshal() should fail on unknown fields")
	}

	if _, err := codec.JSON[mockData]().Unmarshal([]byte(`{"A":"foo","C":true}`)); err != nil {
		t.Fatalf("non-strict Unmarshal() should ignore unknown fields; got %q", err)
	}
}

func TestGob(t *testing.T) {
	c := codec.Gob[mockData]()

	want := mockData{A: "bar", B: -1}
	b, err := c.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	got, err := c.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if got != want {
		t.Fatalf("decoded data should be %v; is %v", want, got)
	}
}

func TestProto(t *testing.T) {
	c := codec.Proto(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })

	b, err := c.Marshal(wrapperspb.String("hi"))
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	got, err := c.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if got.GetValue() != "hi" {
		t.Fatalf("decoded value should be %q; is %q", "hi", got.GetValue())
	}
}

func TestDeserialize_typeMismatch(t *testing.T) {
	c := codec.JSON[mockData]()
	obj, err := codec.Serialize(c, "foo", mockData{A: "a"})
	if err != nil {
		t.Fatalf("Serialize() failed with %q", err)
	}

	if _, err := codec.Deserialize(c, "bar", obj); !errors.Is(err, codec.ErrTypeMismatch) {
		t.Fatalf("Deserialize() should fail with %q; got %q", codec.ErrTypeMismatch, err)
	}

	got, err := codec.Deserialize(c, "foo", obj)
	if err != nil {
		t.Fatalf("Deserialize() failed with %q", err)
	}
	if got.A != "a" {
		t.Fatalf("decoded A should be %q; is %q", "a", got.A)
	}
}

func TestSerializedObject_Clone(t *testing.T) {
	obj := codec.SerializedObject{Type: "foo", Data: []byte("abc")}
	clone := obj.Clone()
	clone.Data[0] = 'x'

	if string(obj.Data) != "abc" {
		t.Fatalf("modifying the clone should not modify the original; original is %q", obj.Data)
	}
}

func TestRegistry(t *testing.T) {
	reg := codec.New()
	codec.Register(reg, "foo", codec.JSON[mockData]())

	want := mockData{A: "foo", B: 1}
	obj, err := reg.Marshal("foo", want)
	if err != nil {
		t.Fatalf("Marshal() failed with %q", err)
	}

	if obj.Type != "foo" {
		t.Fatalf("Type should be %q; is %q", "foo", obj.Type)
	}

	got, err := reg.Unmarshal(obj)
	if err != nil {
		t.Fatalf("Unmarshal() failed with %q", err)
	}

	if got.(mockData) != want {
		t.Fatalf("decoded data should be %v; is %v", want, got)
	}
}

func TestRegistry_ErrNotFound(t *testing.T) {
	reg := codec.New()

	if _, err := reg.Marshal("foo", mockData{}); !errors.Is(err, codec.ErrNotFound) {
		t.Fatalf("Marshal() should fail with %q; got %q", codec.ErrNotFound, err)
	}

	if _, err := reg.Unmarshal(codec.SerializedObject{Type: "foo"}); !errors.Is(err, codec.ErrNotFound) {
		t.Fatalf("Unmarshal() should fail with %q; got %q", codec.ErrNotFound, err)
	}
}

func TestRegistry_Marshal_wrongType(t *testing.T) {
	reg := codec.New()
	codec.Register(reg, "foo", codec.JSON[mockData]())

	if _, err := reg.Marshal("foo", "not mock data"); !errors.Is(err, codec.ErrTypeMismatch) {
		t.Fatalf("Marshal() should fail with %q; got %q", codec.ErrTypeMismatch, err)
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := codec.New()
	codec.Register(reg, "b", codec.JSON[mockData]())
	codec.Register(reg, "a", codec.Gob[mockData]())

	if want, got := []string{"a", "b"}, reg.Names(); !cmp.Equal(want, got) {
		t.Fatalf("Names() returned wrong names:\n%s", cmp.Diff(want, got))
	}
}
