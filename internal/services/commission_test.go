// internal/services/commission_test.go
package services

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateCommissionStandardDeal(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(100000),
		1,
		decimal.NewFromInt(3),
		decimal.NewFromInt(45),
		decimal.NewFromInt(10),
	)

	assert.True(t, breakdown.Gross.Equal(decimal.NewFromInt(3000)), "gross = %s", breakdown.Gross)
	assert.True(t, breakdown.Master.Equal(decimal.NewFromInt(300)), "master = %s", breakdown.Master)
	assert.True(t, breakdown.Net.Equal(decimal.NewFromInt(1350)), "net = %s", breakdown.Net)
	assert.True(t, breakdown.Office.Equal(decimal.NewFromInt(1350)), "office = %s", breakdown.Office)
}

func TestCalculateCommissionDoubleSided(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(100000),
		2,
		decimal.NewFromInt(3),
		decimal.NewFromInt(45),
		decimal.NewFromInt(10),
	)

	assert.True(t, breakdown.Gross.Equal(decimal.NewFromInt(6000)), "gross = %s", breakdown.Gross)
	assert.True(t, breakdown.Master.Equal(decimal.NewFromInt(600)), "master = %s", breakdown.Master)
}

// A generous agent split combined with a high royalty can leave the office
// with a loss. The engine records it as negative rather than clamping.
func TestCalculateCommissionNegativeOffice(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(100000),
		1,
		decimal.NewFromInt(3),
		decimal.NewFromInt(60),
		decimal.NewFromInt(50),
	)

	assert.True(t, breakdown.Gross.Equal(decimal.NewFromInt(3000)), "gross = %s", breakdown.Gross)
	assert.True(t, breakdown.Master.Equal(decimal.NewFromInt(1500)), "master = %s", breakdown.Master)
	assert.True(t, breakdown.Net.Equal(decimal.NewFromInt(1800)), "net = %s", breakdown.Net)
	assert.True(t, breakdown.Office.Equal(decimal.NewFromInt(-300)), "office = %s", breakdown.Office)
}

func TestCalculateCommissionZeroRates(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(250000),
		1,
		decimal.NewFromInt(3),
		decimal.Zero,
		decimal.Zero,
	)

	assert.True(t, breakdown.Master.IsZero())
	assert.True(t, breakdown.Net.IsZero())
	assert.True(t, breakdown.Office.Equal(breakdown.Gross))
}

// The three shares must always add up to the gross exactly, whatever the
// rates. The office share absorbs any rounding remainder.
func TestCalculateCommissionAdditivity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		price := decimal.NewFromFloat(rng.Float64() * 2_000_000)
		sides := 1 + rng.Intn(2)
		commissionPct := decimal.NewFromFloat(rng.Float64() * 10)
		splitPct := decimal.NewFromFloat(rng.Float64() * 100)
		royaltyPct := decimal.NewFromFloat(rng.Float64() * 100)

		breakdown := CalculateCommission(price, sides, commissionPct, splitPct, royaltyPct)

		sum := breakdown.Master.Add(breakdown.Net).Add(breakdown.Office)
		assert.True(t, sum.Equal(breakdown.Gross),
			"master+net+office=%s gross=%s (price=%s sides=%d)", sum, breakdown.Gross, price, sides)
	}
}
