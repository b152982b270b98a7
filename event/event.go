// Package event defines the persisted event record of an aggregate and the
// contract of the event store that holds them.
package event

import (
	"fmt"
	"time"

	"github.com/jeroenvanmaanen/dendrite/codec"
	"golang.org/x/exp/maps"
)

// Meta data keys that are set on events created by the command pipeline.
const (
	// MetaCorrelationID holds the message identifier of the command that
	// produced the event.
	MetaCorrelationID = "correlation_id"

	// MetaBatchID is shared by all events that were appended in one call.
	MetaBatchID = "batch_id"
)

// Event is a persisted domain event of an aggregate. Within an aggregate,
// events are ordered by their AggregateSequenceNumber, starting at 0.
type Event struct {
	MessageIdentifier       string
	Timestamp               int64 // milliseconds since the Unix epoch
	AggregateIdentifier     string
	AggregateSequenceNumber int64
	AggregateType           string
	Payload                 codec.SerializedObject
	MetaData                map[string]string
	Snapshot                bool
}

// Time returns the timestamp of the event as a time.Time.
func (evt Event) Time() time.Time {
	return time.UnixMilli(evt.Timestamp)
}

// Clone returns a deep copy of the event.
func (evt Event) Clone() Event {
	evt.Payload = evt.Payload.Clone()
	if evt.MetaData != nil {
		evt.MetaData = maps.Clone(evt.MetaData)
	}
	return evt
}

func (evt Event) String() string {
	return fmt.Sprintf("%s[%s#%d](%s)", evt.AggregateType, evt.AggregateIdentifier, evt.AggregateSequenceNumber, evt.Payload.Type)
}
