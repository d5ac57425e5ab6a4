package booking

import "github.com/shopspring/decimal"

// DefaultDailyRate is charged per occupied day unless the process is
// configured with another rate.
var DefaultDailyRate = decimal.RequireFromString("50.00")

// Price returns days * dailyRate for the interval, rounded to cents.
func Price(i Interval, dailyRate decimal.Decimal) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(int64(i.Days()))).Round(2)
}
