package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/aggregate"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/handler"
)

func newAggregate(name string, commands ...string) *aggregate.Definition[struct{}] {
	reg := handler.NewRegistry[struct{}, aggregate.Outcome]()
	for _, cmd := range commands {
		handler.Insert(reg, cmd, codec.JSON[struct{}](), func(context.Context, struct{}, struct{}) (aggregate.Outcome, error) {
			return aggregate.Outcome{}, nil
		})
	}
	return aggregate.New(name, func() struct{} { return struct{}{} }, nil, reg, nil)
}

func TestRegistry_Routes(t *testing.T) {
	reg := aggregate.NewRegistry()
	reg.Insert(newAggregate("foo", "a", "b"))
	reg.Insert(newAggregate("bar", "c"))

	routing, err := reg.Routes()
	if err != nil {
		t.Fatalf("Routes() failed with %q", err)
	}

	for cmd, want := range map[string]string{"a": "foo", "b": "foo", "c": "bar"} {
		got, ok := routing.Lookup(cmd)
		if !ok {
			t.Errorf("command %q should be routed", cmd)
			continue
		}
		if got != want {
			t.Errorf("command %q should be routed to %q; got %q", cmd, want, got)
		}
	}

	if _, ok := routing.Lookup("d"); ok {
		t.Errorf("unknown command should not be routed")
	}

	if want := []string{"a", "b", "c"}; !cmp.Equal(want, routing.Commands()) {
		t.Errorf("Commands() returned wrong names:\n%s", cmp.Diff(want, routing.Commands()))
	}
}

func TestRegistry_Register_lastWins(t *testing.T) {
	reg := aggregate.NewRegistry()
	reg.Insert(newAggregate("foo", "a", "b"))
	reg.Insert(newAggregate("bar", "b"))

	var commands []string
	mapping := make(map[string]string)
	if err := reg.Register(&commands, mapping); err != nil {
		t.Fatalf("Register() failed with %q", err)
	}

	if want := []string{"a", "b"}; !cmp.Equal(want, commands) {
		t.Fatalf("Register() should list each command once:\n%s", cmp.Diff(want, commands))
	}

	if want := map[string]string{"a": "foo", "b": "bar"}; !cmp.Equal(want, mapping) {
		t.Fatalf("Register() should route duplicates to the last aggregate:\n%s", cmp.Diff(want, mapping))
	}
}

func TestRegistry_Register_strict(t *testing.T) {
	reg := aggregate.NewRegistry(aggregate.Strict())
	reg.Insert(newAggregate("foo", "a"))
	reg.Insert(newAggregate("bar", "a"))

	if _, err := reg.Routes(); !errors.Is(err, aggregate.ErrDuplicateCommand) {
		t.Fatalf("Routes() should fail with %q; got %q", aggregate.ErrDuplicateCommand, err)
	}
}

func TestRegistry_Insert_overwrite(t *testing.T) {
	reg := aggregate.NewRegistry()
	reg.Insert(newAggregate("foo", "a"))
	reg.Insert(newAggregate("bar", "b"))

	if err := reg.Insert(newAggregate("foo", "c")); err != nil {
		t.Fatalf("Insert() should silently overwrite; failed with %q", err)
	}

	if want := []string{"foo", "bar"}; !cmp.Equal(want, reg.Names()) {
		t.Fatalf("overwritten aggregate should keep its position:\n%s", cmp.Diff(want, reg.Names()))
	}

	h, ok := reg.Get("foo")
	if !ok {
		t.Fatalf("Get() should return the aggregate")
	}

	if want := []string{"c"}; !cmp.Equal(want, h.CommandNames()) {
		t.Fatalf("last inserted aggregate should win:\n%s", cmp.Diff(want, h.CommandNames()))
	}
}

func TestRegistry_Insert_strict(t *testing.T) {
	reg := aggregate.NewRegistry(aggregate.Strict())

	if err := reg.Insert(newAggregate("foo")); err != nil {
		t.Fatalf("Insert() failed with %q", err)
	}

	if err := reg.Insert(newAggregate("foo")); !errors.Is(err, aggregate.ErrDuplicateAggregate) {
		t.Fatalf("Insert() should fail with %q; got %q", aggregate.ErrDuplicateAggregate, err)
	}
}

func TestRegistry_Get_unknown(t *testing.T) {
	if _, ok := aggregate.NewRegistry().Get("foo"); ok {
		t.Fatalf("Get() should not return an unknown aggregate")
	}
}
