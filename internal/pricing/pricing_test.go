package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	price, err := decimal.NewFromString("99.99")
	require.NoError(t, err)

	total := Total(price, 3)

	assert.Equal(t, "299.97", total.StringFixed(2))
}

func TestTotal_SingleUnit(t *testing.T) {
	price, err := decimal.NewFromString("1500.00")
	require.NoError(t, err)

	assert.Equal(t, "1500.00", Total(price, 1).StringFixed(2))
}

func TestTotal_RoundsToTwoPlaces(t *testing.T) {
	price, err := decimal.NewFromString("0.333")
	require.NoError(t, err)

	assert.Equal(t, "1.67", Total(price, 5).StringFixed(2))
}

func TestSoldPercentage(t *testing.T) {
	tests := []struct {
		name      string
		initial   int
		remaining int
		want      string
	}{
		{"three quarters sold", 200, 50, "75.00"},
		{"nothing sold", 100, 100, "0.00"},
		{"sold out", 40, 0, "100.00"},
		{"rounded", 3, 1, "66.67"},
		{"zero initial", 0, 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SoldPercentage(tt.initial, tt.remaining)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

// A revised initial changes the denominator: the percentage is always
// against the current allotment size, not the size at first sale.
func TestSoldPercentage_AfterInitialRevision(t *testing.T) {
	// 150 sold out of 200, then initial raised to 300 (remaining becomes 150).
	assert.Equal(t, "75.00", SoldPercentage(200, 50).StringFixed(2))
	assert.Equal(t, "50.00", SoldPercentage(300, 150).StringFixed(2))
}
