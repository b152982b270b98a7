// Package axonpb defines the messages and gRPC services of the command
// subscription protocol and the event store. Messages are plain structs that
// are marshalled with the codec registered under the "json" content subtype.
package axonpb

// SerializedObject is the wire form of a typed payload.
type SerializedObject struct {
	Type     string `json:"type"`
	Revision string `json:"revision,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// ProcessingInstruction is a key/value hint attached to a message.
type ProcessingInstruction struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrorMessage describes a failed command or instruction.
type ErrorMessage struct {
	Message   string   `json:"message"`
	Location  string   `json:"location,omitempty"`
	Details   []string `json:"details,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
}

// Command is a command that is dispatched to a subscribed worker.
type Command struct {
	MessageIdentifier      string                  `json:"message_identifier"`
	Name                   string                  `json:"name"`
	Timestamp              int64                   `json:"timestamp,omitempty"`
	Payload                *SerializedObject       `json:"payload,omitempty"`
	MetaData               map[string]string       `json:"meta_data,omitempty"`
	ProcessingInstructions []ProcessingInstruction `json:"processing_instructions,omitempty"`
	ClientID               string                  `json:"client_id,omitempty"`
	ComponentName          string                  `json:"component_name,omitempty"`
}

// CommandResponse is the response of a worker to a Command. ErrorCode is
// empty on success.
type CommandResponse struct {
	MessageIdentifier      string                  `json:"message_identifier"`
	ErrorCode              string                  `json:"error_code,omitempty"`
	ErrorMessage           *ErrorMessage           `json:"error_message,omitempty"`
	Payload                *SerializedObject       `json:"payload,omitempty"`
	MetaData               map[string]string       `json:"meta_data,omitempty"`
	ProcessingInstructions []ProcessingInstruction `json:"processing_instructions,omitempty"`
	RequestIdentifier      string                  `json:"request_identifier"`
}

// CommandSubscription subscribes a worker to a command, or unsubscribes it.
type CommandSubscription struct {
	MessageID     string `json:"message_id"`
	Command       string `json:"command"`
	ComponentName string `json:"component_name"`
	ClientID      string `json:"client_id"`
	LoadFactor    int32  `json:"load_factor"`
}

// FlowControl grants the router permits to send more commands.
type FlowControl struct {
	ClientID string `json:"client_id"`
	Permits  int64  `json:"permits"`
}

// InstructionAck acknowledges an instruction.
type InstructionAck struct {
	InstructionID string        `json:"instruction_id"`
	Success       bool          `json:"success"`
	Error         *ErrorMessage `json:"error,omitempty"`
}

// CommandProviderOutbound is an instruction from a worker to the router.
// Exactly one of the instruction fields is set.
type CommandProviderOutbound struct {
	InstructionID   string               `json:"instruction_id"`
	Subscribe       *CommandSubscription `json:"subscribe,omitempty"`
	Unsubscribe     *CommandSubscription `json:"unsubscribe,omitempty"`
	FlowControl     *FlowControl         `json:"flow_control,omitempty"`
	CommandResponse *CommandResponse     `json:"command_response,omitempty"`
	Ack             *InstructionAck      `json:"ack,omitempty"`
}

// CommandProviderInbound is an instruction from the router to a worker.
type CommandProviderInbound struct {
	InstructionID string          `json:"instruction_id"`
	Command       *Command        `json:"command,omitempty"`
	Ack           *InstructionAck `json:"ack,omitempty"`
}

// Event is the wire form of a stored event.
type Event struct {
	MessageIdentifier       string            `json:"message_identifier"`
	AggregateIdentifier     string            `json:"aggregate_identifier"`
	AggregateSequenceNumber int64             `json:"aggregate_sequence_number"`
	AggregateType           string            `json:"aggregate_type"`
	Timestamp               int64             `json:"timestamp"`
	Payload                 *SerializedObject `json:"payload,omitempty"`
	MetaData                map[string]string `json:"meta_data,omitempty"`
	Snapshot                bool              `json:"snapshot,omitempty"`
}

// GetAggregateEventsRequest requests the events of an aggregate.
type GetAggregateEventsRequest struct {
	AggregateID     string `json:"aggregate_id"`
	InitialSequence int64  `json:"initial_sequence,omitempty"`
	AllowSnapshots  bool   `json:"allow_snapshots,omitempty"`
}

// ReadHighestSequenceNrRequest requests the highest sequence number of an
// aggregate.
type ReadHighestSequenceNrRequest struct {
	AggregateID    string `json:"aggregate_id"`
	FromSequenceNr int64  `json:"from_sequence_nr"`
}

// ReadHighestSequenceNrResponse carries the highest sequence number of an
// aggregate, or -1 if it has no events.
type ReadHighestSequenceNrResponse struct {
	ToSequenceNr int64 `json:"to_sequence_nr"`
}

// Confirmation confirms an append.
type Confirmation struct {
	Success bool `json:"success"`
}
