package cmdworker

import (
	"fmt"

	"github.com/jeroenvanmaanen/dendrite/api/axonpb"
	"github.com/jeroenvanmaanen/dendrite/codec"
)

const (
	// DefaultBatchSize is the default number of permits granted per flow
	// control instruction.
	DefaultBatchSize = 3

	// LoadFactor is the load factor of every subscription.
	LoadFactor = 100

	// ErrorCode is the error code of failed command responses.
	ErrorCode = "ERROR"
)

// State is the state of a Driver.
type State int

const (
	// Subscribing is the state of a Driver that has not opened the stream.
	Subscribing = State(iota)

	// Steady is the state of a Driver that has subscribed to its commands and
	// granted the initial permits.
	Steady
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "Subscribing"
	case Steady:
		return "Steady"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the result of a handled command.
type Result struct {
	// RequestIdentifier is the message identifier of the command.
	RequestIdentifier string

	// Response is the optional response of a successfully handled command.
	Response *codec.SerializedObject

	// Err is the error of a failed command.
	Err error
}

// Driver is the flow control state machine of a command subscription. It
// produces the instructions a worker sends to the router.
//
// The credit balance tracks how many commands the router may still send.
// Open grants 2×batch size permits. Every response consumes one permit, and
// when the balance drops to the batch size or below, the Driver grants
// another batch.
type Driver struct {
	commands  []string
	clientID  string
	component string
	batchSize int64
	newID     func() string

	state   State
	balance int64
}

// NewDriver returns a Driver that subscribes to the given commands. newID
// generates the instruction identifiers.
func NewDriver(commands []string, clientID, component string, batchSize int, newID func() string) *Driver {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if newID == nil {
		panic("[dendrite/cmdworker.NewDriver] nil id generator")
	}
	return &Driver{
		commands:  commands,
		clientID:  clientID,
		component: component,
		batchSize: int64(batchSize),
		newID:     newID,
	}
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Balance returns the number of commands that the router may still send.
func (d *Driver) Balance() int64 {
	return d.balance
}

// Open returns one Subscribe instruction per command, followed by the
// initial FlowControl instruction, and moves the Driver to Steady. Opening a
// Driver that is already Steady resets its balance, as it happens when the
// stream is reestablished.
func (d *Driver) Open() []*axonpb.CommandProviderOutbound {
	out := make([]*axonpb.CommandProviderOutbound, 0, len(d.commands)+1)
	for _, cmd := range d.commands {
		out = append(out, &axonpb.CommandProviderOutbound{
			InstructionID: d.newID(),
			Subscribe: &axonpb.CommandSubscription{
				MessageID:     d.newID(),
				Command:       cmd,
				ComponentName: d.component,
				ClientID:      d.clientID,
				LoadFactor:    LoadFactor,
			},
		})
	}

	d.balance = 0
	out = append(out, d.grant(2*d.batchSize))
	d.state = Steady

	return out
}

// Respond returns the CommandResponse instruction for res and, if the
// remaining balance is at most the batch size, a FlowControl instruction that
// grants another batch. Respond panics if the Driver was not opened.
func (d *Driver) Respond(res Result) []*axonpb.CommandProviderOutbound {
	if d.state != Steady {
		panic(fmt.Sprintf("[dendrite/cmdworker.Driver] respond in state %v", d.state))
	}

	out := []*axonpb.CommandProviderOutbound{{
		InstructionID:   d.newID(),
		CommandResponse: d.response(res),
	}}

	d.balance--
	if d.balance <= d.batchSize {
		out = append(out, d.grant(d.batchSize))
	}

	return out
}

func (d *Driver) grant(permits int64) *axonpb.CommandProviderOutbound {
	d.balance += permits
	return &axonpb.CommandProviderOutbound{
		InstructionID: d.newID(),
		FlowControl: &axonpb.FlowControl{
			ClientID: d.clientID,
			Permits:  permits,
		},
	}
}

func (d *Driver) response(res Result) *axonpb.CommandResponse {
	resp := &axonpb.CommandResponse{
		MessageIdentifier: d.newID(),
		RequestIdentifier: res.RequestIdentifier,
	}

	if res.Err != nil {
		resp.ErrorCode = ErrorCode
		resp.ErrorMessage = &axonpb.ErrorMessage{
			Message:   res.Err.Error(),
			ErrorCode: ErrorCode,
		}
		return resp
	}

	if res.Response != nil {
		resp.Payload = axonpb.NewSerializedObject(*res.Response)
	}

	return resp
}
