package loyalty

const (
	// PointsPer100 points are earned for every full 100 currency units spent.
	PointsPer100 = 5
	// MaxRedeemPercent caps redemption at this share of the pre-discount total.
	MaxRedeemPercent = 30
	// StampsForFreeDrink is the stamp threshold for a free drink.
	StampsForFreeDrink = 6
)

// CalculatePoints returns the accrual for an order total. Fractional
// hundreds earn nothing.
func CalculatePoints(orderTotal int64) int64 {
	if orderTotal <= 0 {
		return 0
	}
	return orderTotal / 100 * PointsPer100
}

// CalculateMaxRedeemable returns how many points may be spent on an order:
// min(balance, 30% of the total), never negative.
func CalculateMaxRedeemable(orderTotal, balance int64) int64 {
	if orderTotal <= 0 || balance <= 0 {
		return 0
	}
	maxByPercent := orderTotal * MaxRedeemPercent / 100
	if balance < maxByPercent {
		return balance
	}
	return maxByPercent
}
