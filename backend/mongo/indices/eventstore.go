// Package indices provides the index models of the MongoDB event store.
package indices

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventStore provides the builtin index models for the MongoDB event store.
var EventStore = EventStoreIndices{
	ID: mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetName("dendrite_id").SetUnique(true),
	},

	AggregateSequence: mongo.IndexModel{
		Keys: bson.D{
			{Key: "aggregateId", Value: 1},
			{Key: "sequenceNr", Value: 1},
		},
		Options: options.Index().SetName("dendrite_aid_seq").SetUnique(true),
	},

	Time: mongo.IndexModel{
		Keys:    bson.D{{Key: "time", Value: 1}},
		Options: options.Index().SetName("dendrite_time"),
	},
}

// EventStoreIndices are the index models of the event collection.
type EventStoreIndices struct {
	ID                mongo.IndexModel
	AggregateSequence mongo.IndexModel
	Time              mongo.IndexModel
}

// EventStoreCore returns the indexes that are always created. The unique
// (aggregateId, sequenceNr) index rejects concurrent appends.
func EventStoreCore() []mongo.IndexModel {
	return []mongo.IndexModel{
		EventStore.ID,
		EventStore.AggregateSequence,
	}
}
