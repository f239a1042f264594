package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/sangkips/refundify-api/pkg/apperror"
)

// currencyExponents maps ISO 4217 codes to their number of fractional digits.
// Currencies not listed default to 2.
var currencyExponents = map[string]int{
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"PYG": 0,
	"RWF": 0,
	"UGX": 0,
	"VND": 0,
	"VUV": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
}

// Exponent returns the number of fractional digits for a currency code.
func Exponent(currency string) int {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMinor converts a decimal currency amount to its smallest unit (e.g. cents
// for USD). Rounding is half-to-even so repeated conversions carry no bias.
func ToMinor(currency string, amount float64) int64 {
	factor := math.Pow10(Exponent(currency))
	return int64(math.RoundToEven(amount * factor))
}

// FromMinor converts an amount in minor units back to its decimal value.
func FromMinor(currency string, minor int64) float64 {
	factor := math.Pow10(Exponent(currency))
	return float64(minor) / factor
}

// AllocateMinor splits total across len(weights) buckets proportionally to
// weights using the largest-remainder method. The result always sums to total
// exactly: each bucket gets the floor of its ideal share, and the leftover
// units are handed out one per bucket in descending order of fractional
// remainder, ties broken by original index. A zero total or all-zero weights
// yields all zeros.
func AllocateMinor(weights []int64, total int64) []int64 {
	result := make([]int64, len(weights))
	if total == 0 || len(weights) == 0 {
		return result
	}

	var weightSum int64
	for _, w := range weights {
		weightSum += w
	}
	if weightSum == 0 {
		return result
	}

	var allocated int64
	remainders := make([]int64, len(weights))
	for i, w := range weights {
		// floor of the ideal share; remainder kept as an integer
		// (w*total mod weightSum) so comparison is exact.
		share := w * total / weightSum
		result[i] = share
		remainders[i] = w*total - share*weightSum
		allocated += share
	}

	// Hand out the leftover units to the buckets with the largest
	// remainders. Selection sort keeps the tie-break (lowest index first)
	// explicit and deterministic.
	leftover := total - allocated
	used := make([]bool, len(weights))
	for ; leftover > 0; leftover-- {
		best := -1
		for i := range weights {
			if used[i] {
				continue
			}
			if best == -1 || remainders[i] > remainders[best] {
				best = i
			}
		}
		if best == -1 {
			break
		}
		result[best]++
		used[best] = true
	}

	return result
}

// ValidateMinorSum verifies that parts sum to total exactly. A mismatch is an
// arithmetic bug, never a recoverable condition, so the returned error is a
// calculation-integrity error that callers must propagate, not log and drop.
func ValidateMinorSum(parts []int64, total int64, context string) error {
	var sum int64
	for _, p := range parts {
		sum += p
	}
	if sum != total {
		return apperror.NewCalculationIntegrityError(
			fmt.Sprintf("%s: parts sum to %d, expected %d", context, sum, total))
	}
	return nil
}
