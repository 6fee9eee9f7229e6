package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"docfit-go/internal/domain"
)

func candidateOfSize(n int) *domain.Candidate {
	return domain.NewCandidate(make([]byte, n), domain.FormatJPEG)
}

func TestSelectDecisionTable(t *testing.T) {
	s := NewSelector(nil, 0)

	tests := []struct {
		name     string
		size     int
		req      domain.Requirement
		wantName string
		initial  float64
		floor    float64
		early    bool
		attempts int
	}{
		{
			name:     "quality priority",
			size:     2_300_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.KB(400), QualityPriority: domain.PriorityQuality},
			wantName: NameQuality, initial: 0.92, floor: 0.75, attempts: 10,
		},
		{
			name:     "balanced default",
			size:     100_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.KB(50)},
			wantName: NameBalanced, initial: 0.85, floor: 0.5, attempts: 15,
		},
		{
			name:     "size priority",
			size:     100_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.KB(50), QualityPriority: domain.PrioritySize},
			wantName: NameAggressive, initial: 0.7, floor: 0.2, early: true, attempts: 20,
		},
		{
			name:     "ratio over eight overrides quality",
			size:     900_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.Bytes(100_000), QualityPriority: domain.PriorityQuality},
			wantName: NameAggressive, initial: 0.7, floor: 0.2, early: true, attempts: 20,
		},
		{
			name:     "extreme ratio raises ceiling",
			size:     2_000_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.Bytes(100_000)},
			wantName: NameAggressive, initial: 0.7, floor: 0.2, early: true, attempts: 25,
		},
		{
			name:     "no upper bound",
			size:     10_000_000,
			req:      domain.Requirement{AcceptedFormat: domain.FormatJPEG, MinSizeBytes: domain.KB(10)},
			wantName: NameBalanced, initial: 0.85, floor: 0.5, attempts: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := s.Select(candidateOfSize(tt.size), tt.req)
			assert.Equal(t, tt.wantName, st.Name)
			assert.InDelta(t, tt.initial, st.InitialQuality, 1e-9)
			assert.InDelta(t, tt.floor, st.QualityFloor, 1e-9)
			assert.Equal(t, tt.early, st.ScaleEarly)
			assert.Equal(t, tt.attempts, st.MaxAttempts)
			assert.True(t, st.AllowScale)
			assert.Equal(t, DefaultMinScale, st.MinScale)
		})
	}
}

func TestSelectAppliesCategoryPreset(t *testing.T) {
	presets := map[domain.Category]Preset{
		domain.CategorySignature: {QualityFloor: 0.6, MaxAttempts: 12},
		domain.CategoryPhoto:     {QualityFloor: 0.95},
	}
	s := NewSelector(presets, 0.5)

	// Mutating the caller's map must not leak into the selector.
	presets[domain.CategorySignature] = Preset{QualityFloor: 0.1}

	st := s.Select(candidateOfSize(50_000), domain.Requirement{
		Category:        domain.CategorySignature,
		AcceptedFormat:  domain.FormatJPEG,
		MaxSizeBytes:    domain.KB(20),
		QualityPriority: domain.PrioritySize,
	})
	assert.InDelta(t, 0.6, st.QualityFloor, 1e-9)
	assert.Equal(t, 12, st.MaxAttempts)
	assert.Equal(t, 0.5, st.MinScale)

	// A floor above the initial quality is capped at it.
	st = s.Select(candidateOfSize(50_000), domain.Requirement{
		Category:       domain.CategoryPhoto,
		AcceptedFormat: domain.FormatJPEG,
		MaxSizeBytes:   domain.KB(40),
	})
	assert.InDelta(t, st.InitialQuality, st.QualityFloor, 1e-9)
}

func TestCompressionRatio(t *testing.T) {
	req := domain.Requirement{AcceptedFormat: domain.FormatJPEG, MaxSizeBytes: domain.Bytes(100)}
	assert.InDelta(t, 2.5, CompressionRatio(250, req), 1e-9)
	assert.Equal(t, 0.0, CompressionRatio(250, domain.Requirement{}))
	assert.True(t, math.IsInf(CompressionRatio(1, domain.Requirement{MaxSizeBytes: domain.Bytes(0)}), 1))
}
