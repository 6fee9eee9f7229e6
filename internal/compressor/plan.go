package compressor

import (
	"docfit-go/internal/domain"
)

// Fixed search ladders. Both descend strictly.
var (
	qualityLadder = []float64{0.92, 0.85, 0.75, 0.65, 0.55, 0.45, 0.35, 0.25, 0.15, 0.10, 0.05}
	scaleLadder   = []float64{0.8, 0.6, 0.5, 0.4, 0.3, 0.25}
	expandLadder  = []float64{0.95, 0.98, 1.0}
)

// scaleEarlyLevels is how many quality levels the quality-only phase keeps
// when the strategy asks to start scaling early.
const scaleEarlyLevels = 3

const eps = 1e-9

// step is one (scale, quality) pair. Steps sharing a group form one quality
// descent; an undershoot ends the group.
type step struct {
	scale   float64
	quality float64
	group   int
}

// phase is one stage of the search. steps may inspect the attempts made so
// far to decide whether it applies at all.
type phase struct {
	tag   domain.Phase
	steps func(st domain.Strategy, history []domain.Attempt, b domain.Bounds) []step
}

// plan is the ordered list of phases driven by Search.
var plan = []phase{
	{tag: domain.PhaseQuality, steps: qualitySteps},
	{tag: domain.PhaseExpand, steps: expandSteps},
	{tag: domain.PhaseScale, steps: scaleSteps},
}

// QualityLevels returns the deterministic descent from the initial quality to
// the floor.
func QualityLevels(st domain.Strategy) []float64 {
	floor := st.QualityFloor
	if floor > st.InitialQuality {
		floor = st.InitialQuality
	}
	levels := []float64{st.InitialQuality}
	for _, q := range qualityLadder {
		if q < st.InitialQuality-eps && q > floor+eps {
			levels = append(levels, q)
		}
	}
	if floor < st.InitialQuality-eps {
		levels = append(levels, floor)
	}
	return levels
}

// ScaleLevels returns the scale factors tried below 1.0, down to MinScale.
func ScaleLevels(st domain.Strategy) []float64 {
	if !st.AllowScale {
		return nil
	}
	minScale := st.MinScale
	if minScale <= 0 || minScale > 1 {
		minScale = scaleLadder[len(scaleLadder)-1]
	}
	var levels []float64
	for _, s := range scaleLadder {
		if s >= minScale-eps {
			levels = append(levels, s)
		}
	}
	if len(levels) == 0 || levels[len(levels)-1] > minScale+eps {
		levels = append(levels, minScale)
	}
	return levels
}

// shortened keeps every other level plus the floor.
func shortened(levels []float64) []float64 {
	var out []float64
	for i := 0; i < len(levels); i += 2 {
		out = append(out, levels[i])
	}
	if last := levels[len(levels)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

func qualitySteps(st domain.Strategy, _ []domain.Attempt, _ domain.Bounds) []step {
	levels := QualityLevels(st)
	if st.ScaleEarly && len(levels) > scaleEarlyLevels {
		levels = levels[:scaleEarlyLevels]
	}
	steps := make([]step, len(levels))
	for i, q := range levels {
		steps[i] = step{scale: 1, quality: q}
	}
	return steps
}

// expandSteps raises quality above the initial level, used only when every
// attempt so far came out below the minimum size.
func expandSteps(st domain.Strategy, history []domain.Attempt, b domain.Bounds) []step {
	if !allBelow(history, b) {
		return nil
	}
	var steps []step
	for _, q := range expandLadder {
		if q > st.InitialQuality+eps {
			steps = append(steps, step{scale: 1, quality: q})
		}
	}
	return steps
}

// scaleSteps runs a shortened descent at each scale level. Shrinking only
// makes output smaller, so it is skipped when nothing reached the minimum.
func scaleSteps(st domain.Strategy, history []domain.Attempt, b domain.Bounds) []step {
	if allBelow(history, b) {
		return nil
	}
	levels := shortened(QualityLevels(st))
	var steps []step
	for g, s := range ScaleLevels(st) {
		for _, q := range levels {
			steps = append(steps, step{scale: s, quality: q, group: g})
		}
	}
	return steps
}

func allBelow(history []domain.Attempt, b domain.Bounds) bool {
	if len(history) == 0 {
		return false
	}
	for _, a := range history {
		if a.Failed() || !b.Below(a.ResultSizeBytes) {
			return false
		}
	}
	return true
}
