package models

// ModelID identifies one of the fixed image generation backends.
type ModelID string

const (
	ModelGemini ModelID = "gemini"
	ModelImagen ModelID = "imagen"
	ModelUltra  ModelID = "ultra"
)

// AllModels lists the backends in canonical order. Tie-breaking in best-model
// selection and the request fan-out both follow this order.
var AllModels = []ModelID{ModelGemini, ModelImagen, ModelUltra}

// ComparisonKey identifies a comparison. Two keys are equal iff both the
// prompt (byte-for-byte, no normalization) and the seed match.
type ComparisonKey struct {
	Prompt string `json:"prompt"`
	Seed   int64  `json:"seed"`
}

// ModelResult is a single backend's generation outcome.
type ModelResult struct {
	ImageURL     string  `json:"imageUrl"`
	Quality      float64 `json:"quality"`
	Time         float64 `json:"time"`
	ModelVersion string  `json:"modelVersion,omitempty"`
	Tokens       int     `json:"tokens,omitempty"`
}

// ComparisonResult maps each backend to its result. On success all three
// backends are present; there is no partial-success form.
type ComparisonResult map[ModelID]ModelResult

// ProgressEvent is emitted each time one backend call completes during a
// comparison. Completed grows in completion order, not canonical order.
type ProgressEvent struct {
	Percentage float64   `json:"percentage"`
	Completed  []ModelID `json:"completed"`
}
