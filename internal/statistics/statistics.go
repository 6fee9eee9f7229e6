package statistics

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"docfit-go/internal/domain"
	"docfit-go/internal/transform"
)

// Statistics contains all statistics for one batch run.
type Statistics struct {
	TotalFilesFound     int64
	TotalFilesProcessed int64
	FilesCompliant      int64
	FilesTransformed    int64
	FilesWithWarnings   int64
	FilesSkipped        int64
	FilesWithErrors     int64

	TotalAttempts int64

	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	FilesPerSecond   float64
	BytesIn          int64
	BytesOut         int64
	CompressionRatio float64

	Errors []StatError

	mutex sync.RWMutex

	StrategyStats  map[string]int64
	ErrorKindStats map[string]int64
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Kind      string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:      time.Now(),
		StrategyStats:  make(map[string]int64),
		ErrorKindStats: make(map[string]int64),
		Errors:         make([]StatError, 0),
	}
}

// IncrementFilesFound increases the count of found files by 1.
func (s *Statistics) IncrementFilesFound() {
	atomic.AddInt64(&s.TotalFilesFound, 1)
}

// IncrementFilesSkipped increases the count of skipped files by 1.
func (s *Statistics) IncrementFilesSkipped() {
	atomic.AddInt64(&s.FilesSkipped, 1)
}

// RecordResult accounts one successful transform of an input of inSize bytes.
func (s *Statistics) RecordResult(inSize int64, res *domain.Result) {
	atomic.AddInt64(&s.TotalFilesProcessed, 1)
	atomic.AddInt64(&s.BytesIn, inSize)
	atomic.AddInt64(&s.BytesOut, res.FinalSize)
	atomic.AddInt64(&s.TotalAttempts, int64(len(res.AttemptsLog)))

	if res.StrategyUsed == transform.StrategyNone {
		atomic.AddInt64(&s.FilesCompliant, 1)
	} else {
		atomic.AddInt64(&s.FilesTransformed, 1)
	}
	if len(res.Warnings) > 0 {
		atomic.AddInt64(&s.FilesWithWarnings, 1)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.StrategyStats[res.StrategyUsed]++
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation string, err error) {
	atomic.AddInt64(&s.TotalFilesProcessed, 1)
	atomic.AddInt64(&s.FilesWithErrors, 1)
	atomic.AddInt64(&s.TotalAttempts, int64(len(domain.AttemptsOf(err))))

	kind := domain.KindOf(err).String()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ErrorKindStats[kind]++
	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Kind:      kind,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// Finalize calculates final statistics such as duration, throughput and ratio.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	totalProcessed := atomic.LoadInt64(&s.TotalFilesProcessed)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(totalProcessed) / s.Duration.Seconds()
	}

	if out := atomic.LoadInt64(&s.BytesOut); out > 0 {
		s.CompressionRatio = float64(atomic.LoadInt64(&s.BytesIn)) / float64(out)
	}
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return fmt.Sprintf(`Docfit Statistics Summary:

Files:
		Total Found: %d
		Total Processed: %d
		Already Compliant: %d
		Transformed: %d
		With Warnings: %d
		Skipped: %d
		Errors: %d

Search:
		Attempts: %d

Performance:
		Duration: %v
		Files/Second: %.2f
		Bytes In: %s
		Bytes Out: %s
		Ratio: %.2fx`,
		atomic.LoadInt64(&s.TotalFilesFound),
		atomic.LoadInt64(&s.TotalFilesProcessed),
		atomic.LoadInt64(&s.FilesCompliant),
		atomic.LoadInt64(&s.FilesTransformed),
		atomic.LoadInt64(&s.FilesWithWarnings),
		atomic.LoadInt64(&s.FilesSkipped),
		atomic.LoadInt64(&s.FilesWithErrors),
		atomic.LoadInt64(&s.TotalAttempts),
		s.Duration.Round(time.Millisecond),
		s.FilesPerSecond,
		humanize.IBytes(uint64(atomic.LoadInt64(&s.BytesIn))),
		humanize.IBytes(uint64(atomic.LoadInt64(&s.BytesOut))),
		s.CompressionRatio)
}

// GetStrategyBreakdown returns a formatted breakdown of the strategies used.
func (s *Statistics) GetStrategyBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.StrategyStats) == 0 {
		return "No strategy statistics available"
	}

	result := "Strategy Breakdown:\n"
	for _, name := range sortedKeys(s.StrategyStats) {
		result += fmt.Sprintf("  %s: %d\n", name, s.StrategyStats[name])
	}
	return result
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for _, kind := range sortedKeys(s.ErrorKindStats) {
		result += fmt.Sprintf("  %s: %d\n", kind, s.ErrorKindStats[kind])
	}
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// GetFilesWithErrors returns the total number of files with errors.
func (s *Statistics) GetFilesWithErrors() int64 {
	return atomic.LoadInt64(&s.FilesWithErrors)
}

// GetTotalFilesProcessed returns the total number of files processed.
func (s *Statistics) GetTotalFilesProcessed() int64 {
	return atomic.LoadInt64(&s.TotalFilesProcessed)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
