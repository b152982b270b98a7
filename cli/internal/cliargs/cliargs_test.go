package cliargs_test

import (
	"testing"

	"github.com/jeroenvanmaanen/dendrite/cli/internal/cliargs"
)

func TestMinimumN(t *testing.T) {
	validate := cliargs.MinimumN(2, "need two")

	if err := validate(nil, []string{"a"}); err == nil || err.Error() != "need two" {
		t.Fatalf("validation should fail with %q; got %v", "need two", err)
	}

	if err := validate(nil, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("validation should pass; got %q", err)
	}
}

func TestNotBlank(t *testing.T) {
	validate := cliargs.NotBlank("blank")

	for _, args := range [][]string{{""}, {" ", "\t"}} {
		if err := validate(nil, args); err == nil {
			t.Fatalf("validation of %q should fail", args)
		}
	}

	for _, args := range [][]string{nil, {" World "}} {
		if err := validate(nil, args); err != nil {
			t.Fatalf("validation of %q should pass; got %q", args, err)
		}
	}
}
