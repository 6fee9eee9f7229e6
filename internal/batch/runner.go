// Package batch runs independent transforms over many files with a worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"docfit-go/internal/config"
	"docfit-go/internal/domain"
	"docfit-go/internal/logger"
	"docfit-go/internal/statistics"
	"docfit-go/internal/transform"
)

// Runner transforms every supported file under a set of inputs against one
// requirement.
type Runner struct {
	config  *config.Config
	logger  logrus.FieldLogger
	stats   *statistics.Statistics
	engine  *transform.Engine
	opts    transform.Options
	req     domain.Requirement
	workers int
}

// FileInfo contains information about a file to be transformed.
type FileInfo struct {
	Path      string
	Size      int64
	ModTime   time.Time
	Extension string
	Format    domain.Format
}

// Outcome is the result for one file. Exactly one of Result and Err is set.
type Outcome struct {
	File       FileInfo
	OutputPath string
	Result     *domain.Result
	Err        error
}

// NewRunner returns a new Runner. The engine options are snapshotted from
// cfg once, so every file of the run sees the same configuration.
func NewRunner(
	cfg *config.Config,
	log logrus.FieldLogger,
	stats *statistics.Statistics,
	engine *transform.Engine,
	req domain.Requirement,
) *Runner {
	workers := cfg.Batch.WorkerThreads
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		config:  cfg,
		logger:  logger.OrDiscard(log),
		stats:   stats,
		engine:  engine,
		opts:    cfg.Snapshot(),
		req:     req,
		workers: workers,
	}
}

// Run discovers files under inputs and transforms them concurrently. The
// outcomes keep discovery order.
func (r *Runner) Run(ctx context.Context, inputs []string) ([]Outcome, error) {
	if err := r.req.Validate(); err != nil {
		return nil, err
	}
	logger.WithOperation(r.logger, "batch").Info("Starting batch transform")

	files, err := r.discoverFiles(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if len(files) == 0 {
		r.logger.Info("No supported files found")
		r.stats.Finalize()
		return nil, nil
	}
	r.logger.Infof("Found %d files to process", len(files))

	if r.config.Batch.OutputDirectory != "" && !r.config.Batch.DryRun {
		if err := os.MkdirAll(r.config.Batch.OutputDirectory, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	type job struct {
		index int
		file  FileInfo
	}

	jobs := make(chan job, len(files))
	outcomes := make([]Outcome, len(files))

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	wg.Add(r.workers)
	for w := 0; w < r.workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes[j.index] = Outcome{File: j.file, Err: err}
					r.stats.IncrementFilesSkipped()
					continue
				}
				outcomes[j.index] = r.processFile(ctx, j.file)
				if n := done.Add(1); r.config.Batch.ShowProgress {
					r.logger.WithField("progress", fmt.Sprintf("%d/%d", n, len(files))).Info("Progress")
				}
			}
		}()
	}

	for i, f := range files {
		jobs <- job{index: i, file: f}
	}
	close(jobs)
	wg.Wait()

	r.stats.Finalize()
	r.logger.Info("Batch transform completed")
	return outcomes, ctx.Err()
}

// discoverFiles finds all supported files under inputs.
func (r *Runner) discoverFiles(inputs []string) ([]FileInfo, error) {
	var files []FileInfo
	limit := r.config.Batch.MaxFilesPerRun

	visit := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			r.logger.Warnf("Error accessing path %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !r.config.IsSupportedExtension(ext) || r.isOwnOutput(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		files = append(files, FileInfo{
			Path:      path,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Extension: ext,
			Format:    domain.ParseFormat(ext),
		})
		r.stats.IncrementFilesFound()

		if limit > 0 && len(files) >= limit {
			r.logger.Infof("Reached maximum files limit (%d), stopping discovery", limit)
			return filepath.SkipAll
		}
		return nil
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := visit(in, fileEntry{info}, nil); err == filepath.SkipAll {
				break
			}
			continue
		}
		if err := filepath.WalkDir(in, visit); err != nil {
			return nil, err
		}
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

// processFile transforms a single file and writes the output next to it or
// into the output directory.
func (r *Runner) processFile(ctx context.Context, file FileInfo) Outcome {
	log := logger.WithFileOperation(r.logger, file.Path, "transform")
	out := Outcome{File: file}

	data, err := os.ReadFile(file.Path)
	if err != nil {
		out.Err = err
		r.stats.AddError(file.Path, "read_file", err)
		log.WithError(err).Error("Could not read file")
		return out
	}

	// The declared format comes from the extension; a mismatch with the
	// content is reported as corrupt input.
	res, err := r.engine.Transform(ctx, data, file.Format, r.req, r.opts)
	if err != nil {
		out.Err = err
		r.stats.AddError(file.Path, "transform", err)
		log.WithError(err).WithField("kind", domain.KindOf(err).String()).Warn("Transform failed")
		return out
	}
	out.Result = res
	r.stats.RecordResult(int64(len(data)), res)

	out.OutputPath = r.targetPath(file)
	if r.config.Batch.DryRun {
		log.Infof("DRY-RUN: Would write %s (%d bytes)", out.OutputPath, res.FinalSize)
		return out
	}

	out.OutputPath, err = writeUnique(out.OutputPath, bytesWriter(res.FinalBytes))
	if err != nil {
		out.Err = err
		out.Result = nil
		r.stats.AddError(file.Path, "write_file", err)
		log.WithError(err).Error("Could not write output")
		return out
	}
	log.WithFields(logrus.Fields{
		"output":   out.OutputPath,
		"size":     res.FinalSize,
		"strategy": res.StrategyUsed,
	}).Info("Transformed file")
	return out
}

// targetPath returns where the output for file is written.
func (r *Runner) targetPath(file FileInfo) string {
	name := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	ext := r.req.AcceptedFormat.Extension()
	if dir := r.config.Batch.OutputDirectory; dir != "" {
		return filepath.Join(dir, name+ext)
	}
	return filepath.Join(filepath.Dir(file.Path), name+r.config.Batch.Suffix+ext)
}

// isOwnOutput reports whether path looks like an output of an earlier run.
func (r *Runner) isOwnOutput(path string) bool {
	suffix := r.config.Batch.Suffix
	if suffix == "" || r.config.Batch.OutputDirectory != "" {
		return false
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.HasSuffix(name, suffix) {
		return true
	}
	// writeUnique appends _N after the suffix.
	if i := strings.LastIndex(name, "_"); i > 0 {
		return strings.HasSuffix(name[:i], suffix)
	}
	return false
}

// writeUnique creates basePath, or basePath with a counter when that name is
// taken, and fills it with write. Files are created exclusively, so workers
// racing for the same name never overwrite each other. A failed write leaves
// no file behind.
func writeUnique(basePath string, write func(io.Writer) error) (string, error) {
	dir := filepath.Dir(basePath)
	ext := filepath.Ext(basePath)
	nameWithoutExt := strings.TrimSuffix(filepath.Base(basePath), ext)

	path := basePath
	for counter := 1; ; counter++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", nameWithoutExt, counter, ext))
			continue
		}
		if err != nil {
			return path, err
		}
		err = write(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return path, err
		}
		return path, nil
	}
}

// bytesWriter writes data in full.
func bytesWriter(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

// fileEntry adapts os.FileInfo to os.DirEntry for single-file inputs.
type fileEntry struct {
	os.FileInfo
}

func (e fileEntry) Type() os.FileMode          { return e.Mode().Type() }
func (e fileEntry) Info() (os.FileInfo, error) { return e.FileInfo, nil }
