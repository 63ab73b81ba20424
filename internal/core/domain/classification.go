package domain

import "time"

type State string

const (
	StatePending   State = "pending"
	StateProcessed State = "processed"
	StateValidated State = "validated"
	StateRejected  State = "rejected"
)

// Terminal reports whether no further review transition is allowed.
func (s State) Terminal() bool {
	return s == StateValidated || s == StateRejected
}

type Condition string

const (
	ConditionFit   Condition = "fit"
	ConditionUnfit Condition = "unfit"
)

// AlternativePrediction is a secondary variety candidate reported by the model.
type AlternativePrediction struct {
	Variety    string  `json:"variety"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the raw output of the external variety model for one image.
type Prediction struct {
	Variety       string                  `json:"variety"`
	Confidence    float64                 `json:"confidence"`
	Alternatives  []AlternativePrediction `json:"alternatives,omitempty"`
	LatencyMs     int64                   `json:"latency_ms"`
	ModelMetadata map[string]string       `json:"model_metadata,omitempty"`
}

// Classification is the persisted record of one processed image.
// Condition is derived once at creation and never recomputed; State moves
// from processed to exactly one of validated/rejected.
type Classification struct {
	ID                  string                  `json:"id"`
	CorrelationID       string                  `json:"correlation_id"`
	SubmitterID         string                  `json:"submitter_id"`
	ImageRef            string                  `json:"image_ref"`
	PredictedVariety    string                  `json:"predicted_variety"`
	Confidence          float64                 `json:"confidence"`
	Condition           Condition               `json:"condition"`
	Alternatives        []AlternativePrediction `json:"alternatives"`
	State               State                   `json:"state"`
	ProcessingLatencyMs int64                   `json:"processing_latency_ms"`
	ModelMetadata       map[string]string       `json:"model_metadata,omitempty"`
	ClassifiedAt        time.Time               `json:"classified_at"`
	ValidatedBy         string                  `json:"validated_by,omitempty"`
	ValidatedAt         *time.Time              `json:"validated_at,omitempty"`
	ValidationNotes     string                  `json:"validation_notes,omitempty"`
}

// MaxAlternatives bounds how many secondary predictions a record keeps.
const MaxAlternatives = 2

// NormalizeAlternatives drops the primary variety from the candidate list,
// keeps confidence-descending order and trims to MaxAlternatives.
func NormalizeAlternatives(primary string, candidates []AlternativePrediction) []AlternativePrediction {
	out := make([]AlternativePrediction, 0, MaxAlternatives)
	for _, c := range candidates {
		if c.Variety == primary || c.Variety == "" {
			continue
		}
		out = append(out, c)
		if len(out) == MaxAlternatives {
			break
		}
	}
	return out
}

// LifecycleEvent is published after a classification is created or reviewed.
type LifecycleEvent struct {
	ClassificationID string      `json:"classification_id"`
	Action           AuditAction `json:"action"`
	OccurredAt       time.Time   `json:"occurred_at"`
}
