package analytics

import "github.com/shopspring/decimal"

// Standard per-visit delivery cost by service code, for estimating what
// a claim's visits cost the agency to deliver.
var serviceRates = map[string]decimal.Decimal{
	"SN":   decimal.NewFromInt(140), // skilled nursing
	"HHA":  decimal.NewFromInt(100), // home health aide
	"PT":   decimal.NewFromInt(175), // physical therapy
	"OT":   decimal.NewFromInt(160), // occupational therapy
	"ST":   decimal.NewFromInt(180), // speech therapy
	"MSW":  decimal.NewFromInt(125), // medical social worker
	"MEDS": decimal.NewFromInt(50),
}

var defaultServiceRate = decimal.NewFromInt(125)

// ServiceRate returns the standard per-visit cost for a service code.
func ServiceRate(code string) decimal.Decimal {
	if rate, ok := serviceRates[code]; ok {
		return rate
	}
	return defaultServiceRate
}
