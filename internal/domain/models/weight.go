// internal/domain/models/weight.go
package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weight is a unit's voting power. It is stored as BSON Decimal128 so that
// fractional ownership survives round trips exactly.
type Weight struct {
	decimal.Decimal
}

// DefaultWeight is the weight of a participant registered without one.
var DefaultWeight = Weight{decimal.NewFromInt(1)}

// NewWeight wraps a decimal.
func NewWeight(d decimal.Decimal) Weight {
	return Weight{d}
}

// WeightFromInt returns an integral weight.
func WeightFromInt(n int64) Weight {
	return Weight{decimal.NewFromInt(n)}
}

// ParseWeight parses a decimal string such as "1" or "0.0425".
func ParseWeight(s string) (Weight, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Weight{}, err
	}
	return Weight{d}, nil
}

// MarshalBSONValue encodes the weight as Decimal128.
func (w Weight) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(w.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("weight %s: %w", w.Decimal.String(), err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue decodes Decimal128, numeric and string representations.
func (w *Weight) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d128, ok := rv.Decimal128OK()
		if !ok {
			return fmt.Errorf("weight: invalid decimal128")
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return fmt.Errorf("weight: %w", err)
		}
		w.Decimal = d
	case bsontype.Double:
		w.Decimal = decimal.NewFromFloat(rv.Double())
	case bsontype.Int32:
		w.Decimal = decimal.NewFromInt32(rv.Int32())
	case bsontype.Int64:
		w.Decimal = decimal.NewFromInt(rv.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(rv.StringValue())
		if err != nil {
			return fmt.Errorf("weight: %w", err)
		}
		w.Decimal = d
	case bsontype.Null, bsontype.Undefined:
		w.Decimal = decimal.Zero
	default:
		return fmt.Errorf("weight: cannot decode BSON type %s", t)
	}
	return nil
}
