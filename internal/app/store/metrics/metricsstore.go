package metricsstore

import (
	"context"

	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals exported as gauges.
type Counts struct {
	AssembliesByStatus  map[string]int64
	OpenVotingItems     int64
	PresentParticipants int64
	Votes               int64
}

// FetchCounts returns the current governance totals.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	out := Counts{AssembliesByStatus: make(map[string]int64, len(models.AssemblyStatuses))}

	for _, st := range models.AssemblyStatuses {
		if n, err := db.Collection("assemblies").CountDocuments(ctx, bson.M{"status": st}); err == nil {
			out.AssembliesByStatus[st] = n
		} else {
			out.AssembliesByStatus[st] = 0
		}
	}

	if n, err := db.Collection("agenda_items").CountDocuments(ctx, bson.M{"status": models.ItemVoting}); err == nil {
		out.OpenVotingItems = n
	}

	present := bson.M{"joined_at": bson.M{"$ne": nil}, "left_at": nil}
	if n, err := db.Collection("assembly_participants").CountDocuments(ctx, present); err == nil {
		out.PresentParticipants = n
	}

	if n, err := db.Collection("votes").EstimatedDocumentCount(ctx); err == nil {
		out.Votes = n
	}

	return out
}
