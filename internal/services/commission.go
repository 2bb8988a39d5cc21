// internal/services/commission.go
package services

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// CommissionBreakdown is the three-way split of a deal's gross commission.
type CommissionBreakdown struct {
	Gross  decimal.Decimal `json:"gross"`
	Master decimal.Decimal `json:"master"`
	Net    decimal.Decimal `json:"net"`
	Office decimal.Decimal `json:"office"`
}

// CalculateCommission splits the gross commission of a closed deal.
//
//	gross  = price * commissionPct/100 * sides
//	master = gross * royaltyPct/100   (platform royalty)
//	net    = gross * splitPct/100     (closing agent)
//	office = gross - master - net     (brokerage remainder)
//
// Office may go negative when splitPct + royaltyPct > 100; the calculator
// does not clamp or reject that combination, input sanity is the caller's
// problem. Pure function, no rounding: results carry full decimal precision
// and master + net + office always equals gross exactly.
func CalculateCommission(price decimal.Decimal, sides int, commissionPct, splitPct, royaltyPct decimal.Decimal) CommissionBreakdown {
	gross := price.Mul(commissionPct).Div(oneHundred).Mul(decimal.NewFromInt(int64(sides)))
	master := gross.Mul(royaltyPct).Div(oneHundred)
	net := gross.Mul(splitPct).Div(oneHundred)
	office := gross.Sub(master).Sub(net)

	return CommissionBreakdown{
		Gross:  gross,
		Master: master,
		Net:    net,
		Office: office,
	}
}
