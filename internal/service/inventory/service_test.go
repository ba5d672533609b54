package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Input validation runs before any store access, so invalid requests are
// rejectable without a database behind the service.
func TestCreateOfferingValidation(t *testing.T) {
	svc := New(nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		price   decimal.Decimal
		qty     int
		wantErr error
	}{
		{
			name:    "zero price",
			price:   decimal.Zero,
			qty:     10,
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "negative price",
			price:   decimal.NewFromInt(-5),
			qty:     10,
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "price above cap",
			price:   decimal.NewFromFloat(2000.01),
			qty:     10,
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "zero quantity",
			price:   decimal.NewFromInt(50),
			qty:     0,
			wantErr: ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			price:   decimal.NewFromInt(50),
			qty:     -1,
			wantErr: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOffering(ctx, 1, tt.price, tt.qty)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPriceCapInclusive(t *testing.T) {
	// 2000.00 exactly passes the price check.
	assert.False(t, decimal.NewFromInt(2000).GreaterThan(maxUnitPrice))
}
