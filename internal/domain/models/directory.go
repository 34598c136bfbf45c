// internal/domain/models/directory.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Tenant, Unit and Resident are owned by the condominium directory.
// The governance engine only reads them.

// Tenant is a condominium.
type Tenant struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Unit is an apartment/lot within a tenant.
type Unit struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	TenantID   primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	Identifier string             `bson:"identifier" json:"identifier"` // e.g. "Bloco A - 101"
}

// Resident is a person registered in the directory.
type Resident struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	TenantID primitive.ObjectID `bson:"tenant_id" json:"tenant_id"`
	UnitID   primitive.ObjectID `bson:"unit_id" json:"unit_id"`
	FullName string             `bson:"full_name" json:"full_name"`
}
