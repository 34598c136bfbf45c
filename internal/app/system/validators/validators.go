// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/condovote/assemblyhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("assemblies", assembliesSchema())
	ensure("agenda_items", agendaItemsSchema())
	ensure("assembly_participants", participantsSchema())
	ensure("votes", votesSchema())
	ensure("minutes", minutesSchema())

	// Append-only trails; no validator.
	ensure("audit_events", nil)
	ensure("announcements", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enum(vals ...string) bson.A {
	out := bson.A{}
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func assembliesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"tenant_id", "title", "status", "scheduled_at"},
			"properties": bson.M{
				"tenant_id":     bson.M{"bsonType": "objectId"},
				"title":         nonBlank,
				"description":   bson.M{"bsonType": "string"},
				"status":        bson.M{"enum": enum(models.AssemblyStatuses...)},
				"scheduled_at":  bson.M{"bsonType": "date"},
				"checkin_token": bson.M{"bsonType": "string", "minLength": 1},
				"agenda_rev":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"checkin_otp": bson.M{
					"bsonType": "object",
					"required": bson.A{"code", "expires_at"},
					"properties": bson.M{
						"code":       bson.M{"bsonType": "string", "pattern": "^[0-9]{6}$"},
						"expires_at": bson.M{"bsonType": "date"},
					},
				},
			},
		},
	}
}

func agendaItemsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"assembly_id", "tenant_id", "title", "status", "quorum_type", "order_index"},
			"properties": bson.M{
				"assembly_id":     bson.M{"bsonType": "objectId"},
				"tenant_id":       bson.M{"bsonType": "objectId"},
				"title":           nonBlank,
				"order_index":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"requires_quorum": bson.M{"bsonType": "bool"},
				"status":          bson.M{"enum": bson.A{models.ItemPending, models.ItemVoting, models.ItemClosed}},
				"quorum_type":     bson.M{"enum": enum(models.QuorumTypes...)},
			},
		},
	}
}

func participantsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"assembly_id", "tenant_id", "unit_id", "voting_weight", "approval_status"},
			"properties": bson.M{
				"assembly_id":     bson.M{"bsonType": "objectId"},
				"tenant_id":       bson.M{"bsonType": "objectId"},
				"unit_id":         bson.M{"bsonType": "objectId"},
				"resident_id":     bson.M{"bsonType": "objectId"},
				"voting_weight":   bson.M{"bsonType": "decimal"},
				"approval_status": bson.M{"enum": bson.A{models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected}},
				"joined_at":       bson.M{"bsonType": "date"},
				"left_at":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func votesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"assembly_id", "agenda_item_id", "participant_id", "choice", "voting_weight", "cast_at"},
			"properties": bson.M{
				"assembly_id":    bson.M{"bsonType": "objectId"},
				"agenda_item_id": bson.M{"bsonType": "objectId"},
				"participant_id": bson.M{"bsonType": "objectId"},
				"unit_id":        bson.M{"bsonType": "objectId"},
				"choice":         bson.M{"enum": bson.A{models.ChoiceYes, models.ChoiceNo, models.ChoiceAbstention}},
				"voting_weight":  bson.M{"bsonType": "decimal"},
				"cast_by":        bson.M{"enum": bson.A{models.CastByOperator, models.CastByParticipant}},
				"cast_at":        bson.M{"bsonType": "date"},
			},
		},
	}
}

func minutesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"assembly_id", "tenant_id", "status", "content", "generated_at"},
			"properties": bson.M{
				"assembly_id":  bson.M{"bsonType": "objectId"},
				"tenant_id":    bson.M{"bsonType": "objectId"},
				"content":      bson.M{"bsonType": "string"},
				"summary":      bson.M{"bsonType": "string"},
				"status":       bson.M{"enum": bson.A{models.MinutesDraft, models.MinutesPendingReview, models.MinutesApproved, models.MinutesPublished}},
				"generated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
