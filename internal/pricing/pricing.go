// Package pricing derives suggested sale prices from cost and condition.
package pricing

import (
	"fmt"
	"math"

	"github.com/driftbooks/driftbooks-api/internal/database/models"
)

// baseMarkup is the flat multiplier applied to every cost price.
const baseMarkup = 3.0

// conditionMultipliers scale the markup by physical condition.
var conditionMultipliers = map[models.Condition]float64{
	models.ConditionLikeNew:    1.2,
	models.ConditionVeryGood:   1.1,
	models.ConditionGood:       1.0,
	models.ConditionAcceptable: 0.8,
}

// Suggest computes a sale price in minor currency units from a cost price in
// minor units and a condition grade. The marked-up major-unit price is
// rounded up to the next whole unit minus 0.01, so prices always end in .99.
// Market-price inputs are not part of the rule today; the markup table is
// the whole rule.
func Suggest(costMinor int64, condition models.Condition) (int64, error) {
	mult, ok := conditionMultipliers[condition]
	if !ok {
		return 0, fmt.Errorf("unknown condition %q", condition)
	}

	costMajor := float64(costMinor) / 100.0
	raw := costMajor * baseMarkup * mult
	psychological := math.Ceil(raw) - 0.01

	return int64(math.Round(psychological * 100.0)), nil
}

// SuggestMajor returns the suggested price in major units for display.
func SuggestMajor(costMinor int64, condition models.Condition) (float64, error) {
	minor, err := Suggest(costMinor, condition)
	if err != nil {
		return 0, err
	}
	return float64(minor) / 100.0, nil
}
