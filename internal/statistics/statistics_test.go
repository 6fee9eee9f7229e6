package statistics

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"docfit-go/internal/domain"
	"docfit-go/internal/transform"
)

func TestRecordResult(t *testing.T) {
	s := NewStatistics()
	s.IncrementFilesFound()
	s.IncrementFilesFound()
	s.IncrementFilesFound()

	s.RecordResult(1000, &domain.Result{FinalSize: 1000, StrategyUsed: transform.StrategyNone, AttemptsLog: []domain.Attempt{}})
	s.RecordResult(4000, &domain.Result{
		FinalSize:    1000,
		StrategyUsed: "balanced",
		AttemptsLog:  make([]domain.Attempt, 4),
		Warnings:     []string{"over"},
	})
	s.AddError("bad.jpg", "transform", &domain.Error{Kind: domain.KindCompressionInfeasible, Attempts: make([]domain.Attempt, 3)})
	s.Finalize()

	assert.Equal(t, int64(3), s.TotalFilesFound)
	assert.Equal(t, int64(3), s.GetTotalFilesProcessed())
	assert.Equal(t, int64(1), s.FilesCompliant)
	assert.Equal(t, int64(1), s.FilesTransformed)
	assert.Equal(t, int64(1), s.FilesWithWarnings)
	assert.Equal(t, int64(1), s.GetFilesWithErrors())
	assert.Equal(t, int64(7), s.TotalAttempts)
	assert.InDelta(t, 2.5, s.CompressionRatio, 1e-9)
	assert.Equal(t, int64(1), s.ErrorKindStats["CompressionInfeasible"])

	assert.Contains(t, s.GetSummary(), "Transformed: 1")
	assert.Contains(t, s.GetStrategyBreakdown(), "balanced: 1")
	assert.Contains(t, s.GetErrorSummary(), "bad.jpg")
}

func TestEmptySummaries(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, "No strategy statistics available", s.GetStrategyBreakdown())
	assert.Equal(t, "No errors occurred during processing", s.GetErrorSummary())
}

func TestConcurrentRecording(t *testing.T) {
	s := NewStatistics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				s.AddError(fmt.Sprintf("f%d", i), "transform", domain.ErrCorruptInput)
				return
			}
			s.RecordResult(10, &domain.Result{FinalSize: 5, StrategyUsed: "quality"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(50), s.GetTotalFilesProcessed())
	assert.Equal(t, int64(10), s.GetFilesWithErrors())
	assert.Equal(t, int64(40), s.StrategyStats["quality"])
	assert.Len(t, s.Errors, 10)
}
