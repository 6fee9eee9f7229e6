package domain

import "time"

// Phase tags the stage of the search an attempt belongs to.
type Phase string

const (
	PhaseQuality  Phase = "quality"
	PhaseExpand   Phase = "expand"
	PhaseScale    Phase = "quality+scale"
	PhaseFallback Phase = "fallback"
)

// Strategy holds the search parameters chosen for one transform.
type Strategy struct {
	Name           string  `json:"name"`
	InitialQuality float64 `json:"initial_quality"`
	QualityFloor   float64 `json:"quality_floor"`
	AllowScale     bool    `json:"allow_scale"`
	// ScaleEarly cuts the quality-only descent short so scaling starts sooner.
	ScaleEarly  bool    `json:"scale_early"`
	MaxAttempts int     `json:"max_attempts"`
	MinScale    float64 `json:"min_scale"`
}

// Attempt records one encode of the search.
type Attempt struct {
	Quality         float64       `json:"quality"`
	ScaleFactor     float64       `json:"scale_factor"`
	ResultSizeBytes int64         `json:"result_size_bytes"`
	Phase           Phase         `json:"phase"`
	Duration        time.Duration `json:"duration"`
	Err             string        `json:"error,omitempty"`
}

// Failed reports whether the attempt produced no output.
func (a Attempt) Failed() bool {
	return a.Err != ""
}

// Result is the output of a successful transform. The engine keeps no
// reference to it once returned.
type Result struct {
	FinalBytes   []byte     `json:"-"`
	FinalFormat  Format     `json:"final_format"`
	FinalSize    int64      `json:"final_size"`
	Dimensions   Dimensions `json:"dimensions"`
	StrategyUsed string     `json:"strategy_used"`
	AttemptsLog  []Attempt  `json:"attempts_log"`
	Warnings     []string   `json:"warnings"`
}
