package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"caption-timing-service/internal/events"
	"caption-timing-service/internal/ledger"
	"caption-timing-service/internal/models"
	"caption-timing-service/internal/observability/metrics"
	"caption-timing-service/internal/schema"
	"caption-timing-service/internal/service/captions"
	"caption-timing-service/internal/service/script"
	"caption-timing-service/internal/service/timing"
)

// settleDelay gives upload tools time to finish writing a job file before
// it is read.
const settleDelay = 50 * time.Millisecond

// Config drives the watch loop and export locations.
type Config struct {
	WatchDir  string
	OutputDir string
	LockFile  string
	WriteSRT  bool
}

// Worker owns the watch loop and the per-job pipeline.
type Worker struct {
	cfg        Config
	resolver   *timing.Resolver
	obfuscator *script.Obfuscator
	store      *ledger.Ledger
	publisher  *events.Publisher
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	lock    *flock.Flock
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// timelineDocument is the export envelope consumed by the caption renderer.
type timelineDocument struct {
	JobID    string           `json:"jobId"`
	Title    string           `json:"title"`
	Author   string           `json:"author,omitempty"`
	Quality  string           `json:"quality"`
	Timeline *models.Timeline `json:"timeline"`
}

// New constructs a worker around its pipeline dependencies.
func New(cfg Config, resolver *timing.Resolver, obfuscator *script.Obfuscator, store *ledger.Ledger, publisher *events.Publisher, logger zerolog.Logger) *Worker {
	return &Worker{
		cfg:        cfg,
		resolver:   resolver,
		obfuscator: obfuscator,
		store:      store,
		publisher:  publisher,
		logger:     logger.With().Str("component", "worker").Logger(),
		metrics:    metrics.DefaultMetrics,
		lock:       flock.New(cfg.LockFile),
	}
}

// Start acquires the worker lock, sweeps job files already in the watch
// directory, and begins watching for new ones. A second worker on the
// same host refuses to start.
func (w *Worker) Start(ctx context.Context) error {
	if w.running.Load() {
		return errors.New("worker already running")
	}

	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire worker lock: %w", err)
	}
	if !ok {
		return errors.New("another caption worker is already running")
	}

	for _, dir := range []string{w.cfg.WatchDir, w.cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = w.lock.Unlock()
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = w.lock.Unlock()
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.cfg.WatchDir); err != nil {
		_ = watcher.Close()
		_ = w.lock.Unlock()
		return fmt.Errorf("watch %s: %w", w.cfg.WatchDir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running.Store(true)

	go w.loop(ctx, watcher)

	w.logger.Info().
		Str("watch", w.cfg.WatchDir).
		Str("output", w.cfg.OutputDir).
		Str("lock", w.cfg.LockFile).
		Msg("worker started")
	return nil
}

// Stop halts the watch loop and releases the worker lock.
func (w *Worker) Stop() {
	if !w.running.Load() {
		return
	}

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	<-w.done
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn().Err(err).Msg("failed to release worker lock")
	}
	w.running.Store(false)
	w.logger.Info().Msg("worker stopped")
}

// Ready reports whether the watch loop is running.
func (w *Worker) Ready() bool {
	return w.running.Load()
}

func (w *Worker) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.done)
	defer watcher.Close()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				w.logger.Warn().Msg("watcher closed, stopping worker loop")
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if !isJobFile(event.Name) {
					continue
				}
				time.Sleep(settleDelay)
				w.process(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// sweep processes job files that were dropped while the worker was down.
func (w *Worker) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		w.logger.Warn().Err(err).Str("dir", w.cfg.WatchDir).Msg("sweep failed")
		return
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !isJobFile(entry.Name()) {
			continue
		}
		w.process(ctx, filepath.Join(w.cfg.WatchDir, entry.Name()))
	}
}

func isJobFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// process runs one job file through the pipeline. Failures are recorded
// and published but never propagate: the worker keeps watching.
func (w *Worker) process(ctx context.Context, path string) {
	started := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_file", path).Msg("cannot read job file")
		return
	}

	fingerprint := ledger.Fingerprint(data)
	seen, err := w.store.Resolved(ctx, fingerprint)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_file", path).Msg("ledger lookup failed")
	}
	if seen {
		w.logger.Debug().Str("job_file", path).Msg("job already resolved, skipping")
		return
	}

	job := NewLifecycle(uuid.NewString())
	logger := w.logger.With().Str("job_id", job.JobID()).Str("job_file", path).Logger()

	if err := job.Begin(); err != nil {
		logger.Error().Err(err).Stringer("state", job.State()).Msg("job cannot start")
		return
	}

	var story models.Story
	if err := json.Unmarshal(data, &story); err != nil {
		w.fail(ctx, job, path, fingerprint, started, fmt.Sprintf("parse job file: %v", err), logger)
		return
	}

	text := script.Clean(story.Text)
	words := strings.Fields(text)
	if len(words) == 0 {
		w.fail(ctx, job, path, fingerprint, started, "story has no words", logger)
		return
	}

	audioPath := story.Audio
	if audioPath != "" && !filepath.IsAbs(audioPath) {
		audioPath = filepath.Join(filepath.Dir(path), audioPath)
	}

	tl := w.resolver.Resolve(ctx, audioPath, text)
	if err := schema.ValidateTimeline(tl, len(words)); err != nil {
		logger.Error().Err(err).Msg("timeline violates output contract, exporting anyway")
	}

	if err := w.export(path, job.JobID(), &story, tl); err != nil {
		w.fail(ctx, job, path, fingerprint, started, fmt.Sprintf("export: %v", err), logger)
		return
	}

	if err := job.MarkExported(); err != nil {
		logger.Error().Err(err).Stringer("state", job.State()).Msg("job state out of order")
	}

	entry := ledger.Entry{
		JobID:         job.JobID(),
		StoryPath:     path,
		Fingerprint:   fingerprint,
		Method:        string(tl.Method),
		WordCount:     len(tl.Words),
		AudioDuration: tl.AudioDuration,
		MatchRatio:    tl.MatchRatio,
	}
	if err := w.store.RecordResolved(ctx, entry); err != nil {
		logger.Warn().Err(err).Msg("ledger record failed")
	}

	event := models.TimelineResolved{
		EventType:     "timeline.resolved",
		JobID:         job.JobID(),
		Title:         story.Title,
		Method:        tl.Method,
		WordCount:     len(tl.Words),
		MatchRatio:    tl.MatchRatio,
		AvgConfidence: tl.AverageConfidence(),
		AudioDuration: tl.AudioDuration,
		Quality:       captions.QualityLabel(tl.AverageConfidence()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.publisher.PublishResolved(ctx, job.JobID(), event); err != nil {
		logger.Warn().Err(err).Msg("publish resolved event failed")
	}

	w.metrics.RecordJob(ledger.StatusResolved, time.Since(started).Seconds())
	logger.Info().
		Str("method", string(tl.Method)).
		Int("words", len(tl.Words)).
		Stringer("state", job.State()).
		Dur("took", time.Since(started)).
		Msg("job exported")
}

// fail records and publishes a job failure. The worker itself keeps going.
func (w *Worker) fail(ctx context.Context, job *Lifecycle, path, fingerprint string, started time.Time, reason string, logger zerolog.Logger) {
	if !job.Fail() {
		logger.Error().Str("reason", reason).Msg("job failed after reaching a terminal state")
		return
	}

	logger.Error().Str("reason", reason).Msg("job failed")

	err := w.store.RecordFailed(ctx, ledger.Entry{
		JobID:       job.JobID(),
		StoryPath:   path,
		Fingerprint: fingerprint,
		Error:       reason,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("ledger record failed")
	}

	event := models.JobFailed{
		EventType: "job.failed",
		JobID:     job.JobID(),
		StoryPath: path,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := w.publisher.PublishFailed(ctx, job.JobID(), event); err != nil {
		logger.Warn().Err(err).Msg("publish failed event failed")
	}

	w.metrics.RecordJob(ledger.StatusFailed, time.Since(started).Seconds())
}

// export writes the timeline envelope and optional SRT captions under the
// job's base name in the output directory.
func (w *Worker) export(jobPath, jobID string, story *models.Story, tl *models.Timeline) error {
	base := strings.TrimSuffix(filepath.Base(jobPath), filepath.Ext(jobPath))

	doc := timelineDocument{
		JobID:    jobID,
		Title:    story.Title,
		Author:   story.Author,
		Quality:  captions.QualityLabel(tl.AverageConfidence()),
		Timeline: tl,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	timelinePath := filepath.Join(w.cfg.OutputDir, base+".timeline.json")
	if err := os.WriteFile(timelinePath, payload, 0o644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}

	if !w.cfg.WriteSRT {
		return nil
	}

	var replace func(string) string
	if w.obfuscator != nil {
		replace = w.obfuscator.Replace
	}

	srtPath := filepath.Join(w.cfg.OutputDir, base+".srt")
	f, err := os.Create(srtPath)
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	if err := captions.WriteSRT(f, tl.Words, replace); err != nil {
		_ = f.Close()
		return fmt.Errorf("write srt: %w", err)
	}
	return f.Close()
}
