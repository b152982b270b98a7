package cmdworker_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/codec"
	"github.com/jeroenvanmaanen/dendrite/command/cmdworker"
	"github.com/jeroenvanmaanen/dendrite/internal"
)

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestDriver_Open(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo", "bar"}, "client", "component", 3, sequentialIDs())

	if d.State() != cmdworker.Subscribing {
		t.Fatalf("new Driver should be %v; is %v", cmdworker.Subscribing, d.State())
	}

	got := d.Open()
	want := []*axonpb.CommandProviderOutbound{
		{
			InstructionID: "id-1",
			Subscribe: &axonpb.CommandSubscription{
				MessageID:     "id-2",
				Command:       "foo",
				ComponentName: "component",
				ClientID:      "client",
				LoadFactor:    100,
			},
		},
		{
			InstructionID: "id-3",
			Subscribe: &axonpb.CommandSubscription{
				MessageID:     "id-4",
				Command:       "bar",
				ComponentName: "component",
				ClientID:      "client",
				LoadFactor:    100,
			},
		},
		{
			InstructionID: "id-5",
			FlowControl:   &axonpb.FlowControl{ClientID: "client", Permits: 6},
		},
	}

	if !cmp.Equal(want, got) {
		t.Fatalf("Open() returned wrong instructions:\n%s", cmp.Diff(want, got))
	}

	if d.State() != cmdworker.Steady {
		t.Fatalf("opened Driver should be %v; is %v", cmdworker.Steady, d.State())
	}

	if d.Balance() != 6 {
		t.Fatalf("initial balance should be %d; is %d", 6, d.Balance())
	}
}

func TestDriver_Respond_credit(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo"}, "client", "component", 3, internal.NewID)
	d.Open()

	for k := 1; k <= 2; k++ {
		out := d.Respond(cmdworker.Result{RequestIdentifier: fmt.Sprint(k)})
		if len(out) != 1 {
			t.Fatalf("response #%d should not grant permits; got %d instructions", k, len(out))
		}
		if d.Balance() != int64(6-k) {
			t.Fatalf("balance after %d responses should be %d; is %d", k, 6-k, d.Balance())
		}
	}

	out := d.Respond(cmdworker.Result{RequestIdentifier: "3"})
	if len(out) != 2 {
		t.Fatalf("response that drops the balance to 3 should grant permits; got %d instructions", len(out))
	}

	if out[0].CommandResponse == nil {
		t.Fatalf("first instruction should be the response")
	}

	if fc := out[1].FlowControl; fc == nil || fc.Permits != 3 {
		t.Fatalf("second instruction should grant %d permits; got %+v", 3, out[1])
	}

	if d.Balance() != 6 {
		t.Fatalf("balance after the grant should be %d; is %d", 6, d.Balance())
	}

	// the cycle repeats every batch
	for k := 4; k <= 9; k++ {
		out := d.Respond(cmdworker.Result{RequestIdentifier: fmt.Sprint(k)})
		granted := len(out) == 2
		if want := k%3 == 0; granted != want {
			t.Fatalf("response #%d: grant should be %v; got %v", k, want, granted)
		}
		if d.Balance() < 4 || d.Balance() > 6 {
			t.Fatalf("balance should stay within (3, 6]; is %d", d.Balance())
		}
	}
}

func TestDriver_Respond_success(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo"}, "client", "component", 3, sequentialIDs())
	d.Open()

	payload := codec.SerializedObject{Type: "Acknowledgement", Data: []byte(`{}`)}
	out := d.Respond(cmdworker.Result{RequestIdentifier: "req", Response: &payload})

	want := &axonpb.CommandResponse{
		MessageIdentifier: "id-5",
		RequestIdentifier: "req",
		Payload:           &axonpb.SerializedObject{Type: "Acknowledgement", Data: []byte(`{}`)},
	}

	if out[0].InstructionID != "id-4" {
		t.Fatalf("instruction id should be %q; is %q", "id-4", out[0].InstructionID)
	}

	if !cmp.Equal(want, out[0].CommandResponse) {
		t.Fatalf("Respond() returned wrong response:\n%s", cmp.Diff(want, out[0].CommandResponse))
	}
}

func TestDriver_Respond_error(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo"}, "client", "component", 3, internal.NewID)
	d.Open()

	out := d.Respond(cmdworker.Result{RequestIdentifier: "req", Err: errors.New("unknown command")})
	resp := out[0].CommandResponse

	if resp.ErrorCode != "ERROR" {
		t.Fatalf("error code should be %q; is %q", "ERROR", resp.ErrorCode)
	}

	if resp.ErrorMessage == nil || resp.ErrorMessage.Message != "unknown command" {
		t.Fatalf("error message should be %q; got %+v", "unknown command", resp.ErrorMessage)
	}

	if resp.Payload != nil {
		t.Fatalf("failed response should not carry a payload")
	}
}

func TestDriver_Respond_beforeOpen(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo"}, "client", "component", 3, internal.NewID)

	defer func() {
		if recover() == nil {
			t.Fatalf("Respond() before Open() should panic")
		}
	}()

	d.Respond(cmdworker.Result{RequestIdentifier: "req"})
}

func TestDriver_uniqueInstructionIDs(t *testing.T) {
	d := cmdworker.NewDriver([]string{"foo", "bar"}, "client", "component", 3, internal.NewID)

	instructions := d.Open()
	for i := 0; i < 5; i++ {
		instructions = append(instructions, d.Respond(cmdworker.Result{RequestIdentifier: fmt.Sprint(i)})...)
	}

	seen := make(map[string]bool)
	for _, instr := range instructions {
		if len(instr.InstructionID) != 32 {
			t.Errorf("instruction id should be a simple-form UUID; got %q", instr.InstructionID)
		}
		if seen[instr.InstructionID] {
			t.Errorf("duplicate instruction id %q", instr.InstructionID)
		}
		seen[instr.InstructionID] = true

		if sub := instr.Subscribe; sub != nil {
			if sub.MessageID == instr.InstructionID {
				t.Errorf("subscription message id should differ from its instruction id; both are %q", sub.MessageID)
			}
			if seen[sub.MessageID] {
				t.Errorf("duplicate message id %q", sub.MessageID)
			}
			seen[sub.MessageID] = true
		}
	}
}

func TestDriver_defaultBatchSize(t *testing.T) {
	d := cmdworker.NewDriver(nil, "client", "component", 0, internal.NewID)
	d.Open()

	if d.Balance() != 2*cmdworker.DefaultBatchSize {
		t.Fatalf("initial balance should be %d; is %d", 2*cmdworker.DefaultBatchSize, d.Balance())
	}
}
