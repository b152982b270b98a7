package env_test

import (
	"testing"
	"time"

	"github.com/jeroenvanmaanen/dendrite/internal/env"
)

func TestStringOr(t *testing.T) {
	const key = "DENDRITE_TEST_STRING"

	if got := env.StringOr(key, "default"); got != "default" {
		t.Fatalf("StringOr() should return %q for unset variable; got %q", "default", got)
	}

	defer env.Temp(key, "foo")()

	if got := env.StringOr(key, "default"); got != "foo" {
		t.Fatalf("StringOr() should return %q; got %q", "foo", got)
	}
}

func TestIntOr(t *testing.T) {
	const key = "DENDRITE_TEST_INT"

	if got := env.IntOr(key, 3); got != 3 {
		t.Fatalf("IntOr() should return %d for unset variable; got %d", 3, got)
	}

	restore := env.Temp(key, "abc")
	if got := env.IntOr(key, 3); got != 3 {
		t.Fatalf("IntOr() should return %d for invalid value; got %d", 3, got)
	}
	restore()

	defer env.Temp(key, 7)()

	if got := env.IntOr(key, 3); got != 7 {
		t.Fatalf("IntOr() should return %d; got %d", 7, got)
	}
}

func TestBool(t *testing.T) {
	const key = "DENDRITE_TEST_BOOL"

	for _, val := range []string{"1", "true", "YES", "on"} {
		restore := env.Temp(key, val)
		if !env.Bool(key) {
			t.Errorf("Bool() should return true for %q", val)
		}
		restore()
	}

	defer env.Temp(key, "off")()
	if env.Bool(key) {
		t.Errorf("Bool() should return false for %q", "off")
	}
}

func TestDurationOr(t *testing.T) {
	const key = "DENDRITE_TEST_DURATION"

	if got := env.DurationOr(key, time.Second); got != time.Second {
		t.Fatalf("DurationOr() should return %v; got %v", time.Second, got)
	}

	defer env.Temp(key, "250ms")()

	if got := env.DurationOr(key, time.Second); got != 250*time.Millisecond {
		t.Fatalf("DurationOr() should return %v; got %v", 250*time.Millisecond, got)
	}
}
