package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docfit-go/internal/codec"
	"docfit-go/internal/config"
	"docfit-go/internal/domain"
	"docfit-go/internal/statistics"
	"docfit-go/internal/testutil"
	"docfit-go/internal/transform"
)

func setup(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"a.jpg":       testutil.JPEG(testutil.Noise(64, 48, 1), 90),
		"b.png":       testutil.PNG(testutil.Noise(32, 32, 2)),
		"broken.jpg":  testutil.PNG(testutil.Noise(8, 8, 3)),
		"notes.txt":   []byte("skip me"),
		"sub/c.jpeg":  testutil.JPEG(testutil.Noise(40, 40, 4), 70),
		"a_fit.jpg":   testutil.JPEG(testutil.Noise(8, 8, 5), 70),
		"a_fit_1.jpg": testutil.JPEG(testutil.Noise(8, 8, 6), 70),
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Batch.WorkerThreads = 3
	require.NoError(t, cfg.Validate())
	return dir, cfg
}

func newRunner(cfg *config.Config, stats *statistics.Statistics) *Runner {
	log, _ := test.NewNullLogger()
	req := domain.Requirement{Category: domain.CategoryPhoto, AcceptedFormat: domain.FormatJPEG}
	return NewRunner(cfg, log, stats, transform.New(codec.DefaultRegistry(), log), req)
}

func TestRunWritesOutputs(t *testing.T) {
	dir, cfg := setup(t)
	stats := statistics.NewStatistics()

	outcomes, err := newRunner(cfg, stats).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	byName := map[string]Outcome{}
	for _, o := range outcomes {
		byName[filepath.Base(o.File.Path)] = o
	}

	a := byName["a.jpg"]
	require.NoError(t, a.Err)
	assert.Equal(t, filepath.Join(dir, "a_fit_2.jpg"), a.OutputPath)
	assert.Equal(t, transform.StrategyNone, a.Result.StrategyUsed)

	b := byName["b.png"]
	require.NoError(t, b.Err)
	assert.Equal(t, filepath.Join(dir, "b_fit.jpg"), b.OutputPath)
	written, err := os.ReadFile(b.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, domain.DetectFormat(written))

	assert.ErrorIs(t, byName["broken.jpg"].Err, domain.ErrCorruptInput)
	assert.NoError(t, byName["c.jpeg"].Err)

	assert.Equal(t, int64(4), stats.TotalFilesFound)
	assert.Equal(t, int64(1), stats.GetFilesWithErrors())
	assert.Equal(t, int64(2), stats.FilesCompliant)
	assert.Equal(t, int64(1), stats.FilesTransformed)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir, cfg := setup(t)
	cfg.Batch.DryRun = true
	cfg.Batch.OutputDirectory = filepath.Join(dir, "out")

	outcomes, err := newRunner(cfg, statistics.NewStatistics()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	for _, o := range outcomes {
		if o.Err == nil {
			assert.Equal(t, filepath.Join(dir, "out"), filepath.Dir(o.OutputPath))
		}
	}
	_, err = os.Stat(filepath.Join(dir, "out"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSingleFileAndLimit(t *testing.T) {
	dir, cfg := setup(t)
	cfg.Batch.MaxFilesPerRun = 1

	outcomes, err := newRunner(cfg, statistics.NewStatistics()).Run(context.Background(), []string{filepath.Join(dir, "b.png"), dir})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "b.png", filepath.Base(outcomes[0].File.Path))
}

func TestRunCanceled(t *testing.T) {
	dir, cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := statistics.NewStatistics()
	outcomes, err := newRunner(cfg, stats).Run(ctx, []string{dir})
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range outcomes {
		assert.Error(t, o.Err)
	}
	assert.Equal(t, int64(len(outcomes)), stats.FilesSkipped)
}

func TestRunInvalidRequirement(t *testing.T) {
	_, cfg := setup(t)
	log, _ := test.NewNullLogger()
	req := domain.Requirement{AcceptedFormat: domain.FormatJPEG, MinSizeBytes: domain.KB(10), MaxSizeBytes: domain.KB(1)}
	r := NewRunner(cfg, log, statistics.NewStatistics(), transform.New(nil, log), req)

	_, err := r.Run(context.Background(), []string{t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrInvalidRequirement)
}

func TestWriteUniqueConcurrent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out_fit.jpg")
	const n = 8

	paths := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := writeUnique(base, bytesWriter([]byte("x")))
			assert.NoError(t, err)
			paths <- p
		}()
	}
	wg.Wait()
	close(paths)

	seen := make(map[string]bool)
	for p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[base])
}

func TestWriteUniqueRemovesFailedWrite(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out_fit.jpg")
	boom := errors.New("disk full")

	path, err := writeUnique(base, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, base, path)
	assert.NoFileExists(t, base)

	path, err = writeUnique(base, bytesWriter([]byte("ok")))
	require.NoError(t, err)
	assert.Equal(t, base, path, "the name is free again")
}
