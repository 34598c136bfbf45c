// internal/app/store/directory/directorystore.go
package directorystore

import (
	"context"
	"errors"

	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("directory record not found")

// Store reads the condominium directory. The collections are owned by the
// directory service; this package never writes them.
type Store struct {
	tenants   *mongo.Collection
	units     *mongo.Collection
	residents *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		tenants:   db.Collection("tenants"),
		units:     db.Collection("units"),
		residents: db.Collection("residents"),
	}
}

func (s *Store) FindTenant(ctx context.Context, id primitive.ObjectID) (models.Tenant, error) {
	var t models.Tenant
	return t, findOne(ctx, s.tenants, bson.M{"_id": id}, &t)
}

// FindUnit resolves a unit within a tenant. A unit of another tenant is
// reported as not found.
func (s *Store) FindUnit(ctx context.Context, tenantID, unitID primitive.ObjectID) (models.Unit, error) {
	var u models.Unit
	return u, findOne(ctx, s.units, bson.M{"_id": unitID, "tenant_id": tenantID}, &u)
}

func (s *Store) FindResident(ctx context.Context, id primitive.ObjectID) (models.Resident, error) {
	var r models.Resident
	return r, findOne(ctx, s.residents, bson.M{"_id": id}, &r)
}

// CountUnits returns the number of units of a tenant.
func (s *Store) CountUnits(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	return s.units.CountDocuments(ctx, bson.M{"tenant_id": tenantID})
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M, out interface{}) error {
	if err := c.FindOne(ctx, filter).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
