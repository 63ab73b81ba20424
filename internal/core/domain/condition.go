package domain

import (
	"fmt"
	"math"
)

// ConditionFitThreshold is the quality-control cutoff: a prediction at or
// above it is fit for sale. Independent of the display band boundaries in
// stats.go; the values coincide with nothing on purpose.
const ConditionFitThreshold = 0.70

// DecideCondition maps a confidence score to the fit/unfit condition.
// Out-of-range input is a contract violation and is never clamped.
func DecideCondition(confidence float64) (Condition, error) {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return "", WrapError(ErrInvalidConfidence, "decide condition",
			fmt.Errorf("confidence %v outside [0,1]", confidence))
	}
	if confidence >= ConditionFitThreshold {
		return ConditionFit, nil
	}
	return ConditionUnfit, nil
}
