// internal/app/system/indexes/indexes.go
package indexes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

Several governance invariants live here, not in application code:
  - one vote per (agenda item, participant)
  - one agenda item in "voting" per assembly (partial unique index)
  - one participant per (assembly, unit)
  - unique check-in tokens and session-token digests
  - one minutes document per assembly
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureAssemblies(ctx, db); err != nil {
		problems = append(problems, "assemblies: "+err.Error())
	}
	if err := ensureAgendaItems(ctx, db); err != nil {
		problems = append(problems, "agenda_items: "+err.Error())
	}
	if err := ensureParticipants(ctx, db); err != nil {
		problems = append(problems, "assembly_participants: "+err.Error())
	}
	if err := ensureVotes(ctx, db); err != nil {
		problems = append(problems, "votes: "+err.Error())
	}
	if err := ensureMinutes(ctx, db); err != nil {
		problems = append(problems, "minutes: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}
	if err := ensureAnnouncements(ctx, db); err != nil {
		problems = append(problems, "announcements: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string   `bson:"name"`
	Key     bson.D   `bson:"key"`
	Unique  *bool    `bson:"unique,omitempty"`
	Partial bson.Raw `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func partialBytes(m mongo.IndexModel) []byte {
	if m.Options == nil || m.Options.PartialFilterExpression == nil {
		return nil
	}
	b, err := bson.Marshal(m.Options.PartialFilterExpression)
	if err != nil {
		return nil
	}
	return b
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func loadExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := loadExisting(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		desiredPartial := partialBytes(m)
		unique := desiredUnique != nil && *desiredUnique

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))

		if ex, ok := existing[desiredSig]; ok {
			sameOpts := sameBoolPtr(desiredUnique, ex.Unique) && bytes.Equal(desiredPartial, []byte(ex.Partial))
			if sameOpts && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Name or options differ: drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("created_name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureAssemblies(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("assemblies")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Public check-in token lookup; unique when present.
		{
			Keys: bson.D{{Key: "checkin_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_assemblies_checkin_token").
				SetPartialFilterExpression(bson.M{"checkin_token": bson.M{"$type": "string"}}),
		},
		// Tenant listing, newest first.
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "scheduled_at", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_assemblies_tenant_scheduled"),
		},
		// Tenant listing filtered by status.
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "scheduled_at", Value: -1},
			},
			Options: options.Index().SetName("idx_assemblies_tenant_status_scheduled"),
		},
	})
}

func ensureAgendaItems(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("agenda_items")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one item per assembly may be voting.
		{
			Keys: bson.D{{Key: "assembly_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_items_assembly_voting").
				SetPartialFilterExpression(bson.M{"status": "voting"}),
		},
		// Agenda order: order_index, then insertion order.
		{
			Keys: bson.D{
				{Key: "assembly_id", Value: 1},
				{Key: "order_index", Value: 1},
				{Key: "created_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_items_assembly_order"),
		},
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_items_assembly_status"),
		},
	})
}

func ensureParticipants(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("assembly_participants")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One seat per unit per assembly.
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}, {Key: "unit_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_assembly_unit"),
		},
		// Session capability lookup by digest.
		{
			Keys: bson.D{{Key: "session_token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_session_hash").
				SetPartialFilterExpression(bson.M{"session_token_hash": bson.M{"$type": "string"}}),
		},
		// Attendance lists in check-in order.
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}, {Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_participants_assembly_joined"),
		},
	})
}

func ensureVotes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("votes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One vote per (item, participant). Concurrent duplicates fail here.
		{
			Keys:    bson.D{{Key: "agenda_item_id", Value: 1}, {Key: "participant_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_votes_item_participant"),
		},
		{
			Keys:    bson.D{{Key: "participant_id", Value: 1}, {Key: "cast_at", Value: 1}},
			Options: options.Index().SetName("idx_votes_participant_cast"),
		},
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}},
			Options: options.Index().SetName("idx_votes_assembly"),
		},
	})
}

func ensureMinutes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("minutes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_minutes_assembly"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assembly_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_assembly_created"),
		},
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_tenant_created"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_type_created"),
		},
	})
}

func ensureAnnouncements(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("announcements")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_announcements_tenant_created"),
		},
	})
}
