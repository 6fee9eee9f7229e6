package compressor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/codec"
	"docfit-go/internal/domain"
)

// Search drives the phase plan with render until an attempt lands inside
// bounds or st.MaxAttempts attempts have been made. The first in-window
// attempt wins; since quality descends within a phase and scale descends
// across groups, it is the best feasible one the plan can reach.
//
// A failed encode is logged and skipped. Timeout, cancellation and input
// errors stop the search and are returned with the attempts made so far.
func (p *ProgressiveCompressor) Search(ctx context.Context, render Renderer, bounds domain.Bounds, st domain.Strategy) (Outcome, error) {
	var out Outcome
	if st.MaxAttempts <= 0 {
		return out, nil
	}

phases:
	for _, ph := range plan {
		steps := ph.steps(st, out.Attempts, bounds)
		skipGroup := -1
		for i, s := range steps {
			if len(out.Attempts) >= st.MaxAttempts {
				break phases
			}
			if s.group == skipGroup {
				continue
			}
			if err := ctx.Err(); err != nil {
				return out, p.abort(err, out.Attempts)
			}

			data, att, err := p.attempt(ctx, render, s, ph.tag)
			out.Attempts = append(out.Attempts, att)
			if err != nil {
				if fatal(err) {
					return out, attachAttempts(err, out.Attempts)
				}
				continue
			}

			if bounds.Contains(att.ResultSizeBytes) {
				out.Found, out.Data, out.Best = true, data, att
				return out, nil
			}
			if out.Data == nil || closer(att, out.Best, bounds) {
				out.Data, out.Best = data, att
			}

			if bounds.Below(att.ResultSizeBytes) && ph.tag != domain.PhaseExpand {
				// Lower quality or scale only shrinks further.
				if i == 0 || steps[i-1].group != s.group {
					continue phases
				}
				skipGroup = s.group
			}
		}
	}
	return out, nil
}

// Fit runs the phase plan and, when nothing lands in the window, the
// last-resort pass. Both draw on the single budget st.MaxAttempts: the plan
// leaves min(FallbackAttempts, MaxAttempts/3) attempts in reserve and the
// fallback gets what the plan left unused, capped at FallbackAttempts.
func (p *ProgressiveCompressor) Fit(ctx context.Context, render Renderer, bounds domain.Bounds, st domain.Strategy) (Outcome, error) {
	reserve := max(min(p.opts.FallbackAttempts, st.MaxAttempts/3), 0)
	phased := st
	phased.MaxAttempts = st.MaxAttempts - reserve

	out, err := p.Search(ctx, render, bounds, phased)
	if err != nil || out.Found {
		return out, err
	}

	budget := min(p.opts.FallbackAttempts, st.MaxAttempts-len(out.Attempts))
	if budget <= 0 {
		return out, nil
	}
	p.log.WithFields(logrus.Fields{
		"attempts": len(out.Attempts),
		"budget":   budget,
	}).Info("Running last-resort pass")
	fallback, err := p.BinarySearch(ctx, render, bounds, st, budget)
	out.Absorb(fallback, bounds)
	if err != nil {
		return out, attachAttempts(err, out.Attempts)
	}
	return out, nil
}

// BinarySearch is the last-resort pass. It bisects quality between the floor
// and the initial quality at full scale, then bisects scale at the floor
// quality when scaling is allowed. At most budget encodes are made.
func (p *ProgressiveCompressor) BinarySearch(ctx context.Context, render Renderer, bounds domain.Bounds, st domain.Strategy, budget int) (Outcome, error) {
	var out Outcome
	if budget <= 0 {
		return out, nil
	}

	floor := min(st.QualityFloor, st.InitialQuality)
	qualityBudget := budget
	if st.AllowScale {
		qualityBudget = (budget + 1) / 2
	}

	probe := func(s step) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, p.abort(err, out.Attempts)
		}
		data, att, err := p.attempt(ctx, render, s, domain.PhaseFallback)
		out.Attempts = append(out.Attempts, att)
		if err != nil {
			if fatal(err) {
				return false, attachAttempts(err, out.Attempts)
			}
			return false, nil
		}
		if bounds.Contains(att.ResultSizeBytes) {
			out.Found, out.Data, out.Best = true, data, att
			return true, nil
		}
		if out.Data == nil || closer(att, out.Best, bounds) {
			out.Data, out.Best = data, att
		}
		return false, nil
	}

	lo, hi := floor, st.InitialQuality
	for len(out.Attempts) < qualityBudget {
		q := (lo + hi) / 2
		found, err := probe(step{scale: 1, quality: q})
		if err != nil || found {
			return out, err
		}
		last := out.Attempts[len(out.Attempts)-1]
		switch {
		case last.Failed():
			hi = q
		case bounds.Above(last.ResultSizeBytes):
			hi = q
		default:
			lo = q
		}
		if hi-lo < 0.01 {
			break
		}
	}

	if !st.AllowScale || (out.Data != nil && bounds.Below(out.Best.ResultSizeBytes)) {
		return out, nil
	}

	minScale := st.MinScale
	if minScale <= 0 || minScale > 1 {
		minScale = scaleLadder[len(scaleLadder)-1]
	}
	slo, shi := minScale, 1.0
	for len(out.Attempts) < budget {
		s := (slo + shi) / 2
		found, err := probe(step{scale: s, quality: floor})
		if err != nil || found {
			return out, err
		}
		last := out.Attempts[len(out.Attempts)-1]
		if last.Failed() || bounds.Above(last.ResultSizeBytes) {
			shi = s
		} else {
			slo = s
		}
		if shi-slo < 0.01 {
			break
		}
	}
	return out, nil
}

// Settle turns an outcome into a result. Outside the window the closest
// attempt is returned with a warning when it lies within the tolerance;
// otherwise the error is CompressionInfeasible with the full attempts log.
func (p *ProgressiveCompressor) Settle(out Outcome, bounds domain.Bounds, strategyName string, format domain.Format) (*domain.Result, error) {
	res := &domain.Result{
		FinalFormat:  format,
		StrategyUsed: strategyName,
		AttemptsLog:  out.Attempts,
	}
	if out.Found {
		res.FinalBytes = out.Data
		res.FinalSize = int64(len(out.Data))
		return res, nil
	}

	if out.Data != nil && p.opts.Tolerance > 0 && bounds.Widen(p.opts.Tolerance).Contains(out.Best.ResultSizeBytes) {
		res.FinalBytes = out.Data
		res.FinalSize = int64(len(out.Data))
		res.Warnings = append(res.Warnings, toleranceWarning(out.Best, bounds, p.opts.Tolerance))
		p.log.WithFields(logrus.Fields{
			"size":      out.Best.ResultSizeBytes,
			"bounds":    bounds.String(),
			"tolerance": p.opts.Tolerance,
		}).Warn("Accepted closest attempt within tolerance")
		return res, nil
	}

	detail := fmt.Sprintf("no attempt within %s", bounds)
	if out.Data != nil {
		detail = fmt.Sprintf("closest attempt was %d bytes, outside %s", out.Best.ResultSizeBytes, bounds)
	}
	return nil, &domain.Error{
		Kind:     domain.KindCompressionInfeasible,
		Op:       "compress",
		Detail:   detail,
		Attempts: out.Attempts,
	}
}

func toleranceWarning(a domain.Attempt, b domain.Bounds, tolerance float64) string {
	if b.Above(a.ResultSizeBytes) {
		over := float64(a.ResultSizeBytes-b.Max) * 100 / float64(max(b.Max, 1))
		return fmt.Sprintf("output is %d bytes, %.1f%% over the %d byte limit (tolerance %.0f%%)",
			a.ResultSizeBytes, over, b.Max, tolerance*100)
	}
	under := float64(b.Min-a.ResultSizeBytes) * 100 / float64(max(b.Min, 1))
	return fmt.Sprintf("output is %d bytes, %.1f%% under the %d byte minimum (tolerance %.0f%%)",
		a.ResultSizeBytes, under, b.Min, tolerance*100)
}

// attempt runs one bounded render and records it.
func (p *ProgressiveCompressor) attempt(ctx context.Context, render Renderer, s step, tag domain.Phase) ([]byte, domain.Attempt, error) {
	att := domain.Attempt{Quality: s.quality, ScaleFactor: s.scale, Phase: tag}
	start := time.Now()
	data, err := codec.Run(ctx, p.opts.AttemptTimeout, func() ([]byte, error) {
		return render(s.scale, s.quality)
	})
	att.Duration = time.Since(start)

	entry := p.log.WithFields(logrus.Fields{
		"phase":   tag,
		"quality": s.quality,
		"scale":   s.scale,
	})
	if err != nil {
		att.Err = err.Error()
		entry.WithError(err).Debug("Compression attempt failed")
		return nil, att, err
	}
	att.ResultSizeBytes = int64(len(data))
	entry.WithField("size", att.ResultSizeBytes).Debug("Compression attempt")
	return data, att, nil
}

// fatal reports whether err must stop the search instead of moving on to the
// next attempt.
func fatal(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindInternalDecode, domain.KindUnknown:
		return false
	default:
		return true
	}
}

func (p *ProgressiveCompressor) abort(err error, attempts []domain.Attempt) error {
	kind := domain.KindCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.KindTimeout
	}
	return &domain.Error{Kind: kind, Op: "compress", Err: err, Attempts: attempts}
}

func attachAttempts(err error, attempts []domain.Attempt) error {
	var e *domain.Error
	if errors.As(err, &e) {
		cp := *e
		cp.Attempts = attempts
		return &cp
	}
	return &domain.Error{Kind: domain.KindInternalDecode, Op: "compress", Err: err, Attempts: attempts}
}
