package strategy

import "github.com/sdcoffey/big"

// RewardRisk returns (target-close)/(close-invalidation). ok is false when
// close is at or below invalidation, at or above target, or the risk is not
// positive; rr is zero then.
func RewardRisk(closePrice, invalidation, target big.Decimal) (rr big.Decimal, ok bool) {
	if closePrice.LTE(invalidation) || closePrice.GTE(target) {
		return big.ZERO, false
	}
	risk := closePrice.Sub(invalidation)
	if risk.LTE(big.ZERO) {
		return big.ZERO, false
	}
	return target.Sub(closePrice).Div(risk), true
}

// MeetsRewardRisk reports whether the trade offers at least minRR.
func MeetsRewardRisk(closePrice, invalidation, target float64, minRR float64) bool {
	rr, ok := RewardRisk(big.NewDecimal(closePrice), big.NewDecimal(invalidation), big.NewDecimal(target))
	return ok && rr.GTE(big.NewDecimal(minRR))
}
