package stock

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMovement_Delta(t *testing.T) {
	qty := decimal.NewFromInt(5)

	cases := []struct {
		kind Kind
		want string
	}{
		{KindIn, "5"},
		{KindOut, "-5"},
		{KindWaste, "-5"},
		{KindAdjustment, "5"},
	}
	for _, tc := range cases {
		m := NewMovement(1, tc.kind, qty, time.Now())
		assert.True(t, m.Delta().Equal(decimal.RequireFromString(tc.want)),
			"kind %s", tc.kind)
	}

	// A negative adjustment keeps its sign.
	adj := NewMovement(1, KindAdjustment, decimal.NewFromInt(-3), time.Now())
	assert.True(t, adj.Delta().Equal(decimal.NewFromInt(-3)))
}

func TestMovement_Validate(t *testing.T) {
	ctx := context.Background()

	ok := NewMovement(1, KindIn, decimal.NewFromInt(10), time.Now())
	assert.NoError(t, ok.Validate(ctx))

	noMaterial := NewMovement(0, KindIn, decimal.NewFromInt(1), time.Now())
	assert.Error(t, noMaterial.Validate(ctx))

	badKind := NewMovement(1, Kind("teleport"), decimal.NewFromInt(1), time.Now())
	assert.Error(t, badKind.Validate(ctx))

	// Only adjustments may carry a non-positive quantity.
	negOut := NewMovement(1, KindOut, decimal.NewFromInt(-1), time.Now())
	assert.Error(t, negOut.Validate(ctx))
	negAdj := NewMovement(1, KindAdjustment, decimal.NewFromInt(-1), time.Now())
	assert.NoError(t, negAdj.Validate(ctx))
}
