package display

import (
	"math/big"
	"strings"
)

const (
	// DefaultPeriodsPerYear annualizes a per-day reward rate.
	DefaultPeriodsPerYear = 365
	secondsPerDay         = 86400
)

// APY approximates annual yield as rewardRate * periodsPerYear * 100 /
// max(totalStaked, 1), rounded half up. It ignores relative pricing of the
// staked and reward assets.
func APY(rewardRate, totalStaked *big.Int, periodsPerYear uint64) string {
	if rewardRate == nil {
		rewardRate = new(big.Int)
	}
	if periodsPerYear == 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	denominator := big.NewInt(1)
	if totalStaked != nil && totalStaked.Cmp(denominator) > 0 {
		denominator = new(big.Int).Set(totalStaked)
	}

	numerator := new(big.Int).Mul(rewardRate, new(big.Int).SetUint64(periodsPerYear))
	numerator.Mul(numerator, big.NewInt(100))

	return roundHalfUp(new(big.Rat).SetFrac(numerator, denominator)).String()
}

// LockDays renders a lock duration in seconds as days, with up to four
// fractional digits.
func LockDays(lockSeconds uint64) string {
	days := new(big.Rat).SetFrac(new(big.Int).SetUint64(lockSeconds), big.NewInt(secondsPerDay))
	if days.IsInt() {
		return days.Num().String()
	}
	out := strings.TrimRight(days.FloatString(4), "0")
	return strings.TrimSuffix(out, ".")
}

// DaysToSeconds converts a whole number of lock days into seconds.
func DaysToSeconds(days uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(days), big.NewInt(secondsPerDay))
}

// ShortAddress abbreviates a hex address as 0x1234...abcd.
func ShortAddress(hex string) string {
	if len(hex) <= 10 {
		return hex
	}
	return hex[:6] + "..." + hex[len(hex)-4:]
}

func roundHalfUp(r *big.Rat) *big.Int {
	num := new(big.Int).Set(r.Num())
	den := r.Denom()
	num.Mul(num, big.NewInt(2))
	num.Add(num, den)
	den2 := new(big.Int).Mul(den, big.NewInt(2))
	return num.Div(num, den2)
}
