package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/containerhub/containerhub/internal/entities"
)

// RunPhase is the explicit lifecycle of an import run:
// Idle → Running → Completed | Failed | Cancelled.
type RunPhase string

const (
	PhaseIdle      RunPhase = "idle"
	PhaseRunning   RunPhase = "running"
	PhaseCompleted RunPhase = "completed"
	PhaseFailed    RunPhase = "failed"
	PhaseCancelled RunPhase = "cancelled"
)

// Terminal reports whether the phase is an end state.
func (p RunPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseCancelled
}

// ImportMode selects the submission strategy.
type ImportMode string

const (
	// ModeFile submits parsed records in strictly ordered batches.
	ModeFile ImportMode = "file"
	// ModeBulkURLs fetches and creates items from a URL list in small
	// concurrent groups.
	ModeBulkURLs ImportMode = "bulk-urls"
)

// Run is one import execution. All orchestration happens on the goroutine
// started by the runner for the requesting session; Run only guards the
// phase transitions and exposes read access for polling.
type Run struct {
	ID        string
	Mode      ImportMode
	CreatedAt time.Time

	tracker *ProgressTracker
	ctx     context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	phase      RunPhase
	result     *ImportResult
	failure    error
	finishedAt time.Time
}

// Phase returns the current lifecycle phase.
func (r *Run) Phase() RunPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Progress returns a snapshot of the run's counters.
func (r *Run) Progress() ProgressSnapshot {
	return r.tracker.Snapshot()
}

// Cancel requests cooperative cancellation. It takes effect at the next
// polled checkpoint; calling it on a finished run is a no-op.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.cancel()
}

// Result returns the final summary, or ErrRunNotFinished while running.
func (r *Run) Result() (*ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.phase.Terminal() {
		return nil, ErrRunNotFinished
	}
	return r.result, nil
}

// Err returns the fatal error of a failed run, if any.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// FinishedAt returns when the run reached a terminal phase (zero while
// running).
func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// transition moves the run to a terminal phase exactly once.
func (r *Run) transition(phase RunPhase, result *ImportResult, failure error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.Terminal() {
		return
	}
	r.phase = phase
	r.result = result
	r.failure = failure
	r.finishedAt = time.Now()
	r.tracker.Freeze()
}

// RunOptions describe one import request.
type RunOptions struct {
	Mode     ImportMode
	ItemType entities.ItemType
	Format   SourceFormat // declared format for file/json payloads
	Origin   SourceOrigin

	Payload []byte   // file or pasted-JSON content
	URLs    []string // bulk-urls mode

	Visibility entities.Visibility
	Policy     FailurePolicy // empty selects the mode default
}

// RunnerConfig carries the tuning knobs of the import pipeline.
type RunnerConfig struct {
	VoiceBatchSize   int
	FileBatchSize    int
	BulkURLBatchSize int
	URLPoolSize      int
	GroupDelay       time.Duration
}

// Runner starts and drives import runs against an injected catalog.
type Runner struct {
	catalog Catalog
	cfg     RunnerConfig
}

func NewRunner(catalog Catalog, cfg RunnerConfig) *Runner {
	if cfg.VoiceBatchSize <= 0 {
		cfg.VoiceBatchSize = 10
	}
	if cfg.FileBatchSize <= 0 {
		cfg.FileBatchSize = 25
	}
	if cfg.BulkURLBatchSize <= 0 {
		cfg.BulkURLBatchSize = 50
	}
	if cfg.URLPoolSize <= 0 {
		cfg.URLPoolSize = 3
	}
	return &Runner{catalog: catalog, cfg: cfg}
}

// Start validates and parses the request synchronously, so malformed
// input fails the call immediately with no partial processing, then
// launches the run on a goroutine owned by the requesting session.
func (r *Runner) Start(opts RunOptions) (*Run, error) {
	if !entities.ValidItemType(opts.ItemType) {
		return nil, fmt.Errorf("invalid item type: %q", opts.ItemType)
	}

	switch opts.Mode {
	case ModeFile:
		return r.startFileRun(opts)
	case ModeBulkURLs:
		return r.startURLRun(opts)
	default:
		return nil, fmt.Errorf("invalid import mode: %q", opts.Mode)
	}
}

func (r *Runner) newRun(mode ImportMode, totalItems, totalBatches int) *Run {
	ctx, cancel := context.WithCancel(context.Background())
	return &Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		CreatedAt: time.Now(),
		tracker:   NewProgressTracker(totalItems, totalBatches),
		ctx:       ctx,
		cancel:    cancel,
		phase:     PhaseRunning,
	}
}

func (r *Runner) startFileRun(opts RunOptions) (*Run, error) {
	records, err := parsePayload(opts)
	if err != nil {
		return nil, err
	}

	normalizer := &Normalizer{
		ItemType:   opts.ItemType,
		Format:     opts.Format,
		Origin:     opts.Origin,
		Visibility: opts.Visibility,
	}
	items := normalizer.Normalize(records)
	items, skippedDuplicates := dropDuplicateSourceURLs(items)

	batchSize := r.cfg.FileBatchSize
	if opts.ItemType == entities.ItemTypeVoice {
		batchSize = r.cfg.VoiceBatchSize
	}
	policy := opts.Policy
	if policy == "" {
		policy = FailFast
	}

	totalBatches := (len(items) + batchSize - 1) / batchSize
	run := r.newRun(ModeFile, len(items), totalBatches)

	result := &ImportResult{SkippedDuplicates: skippedDuplicates}
	submitter := &BatchSubmitter{
		BatchSize: batchSize,
		Policy:    policy,
		Tracker:   run.tracker,
		Result:    result,
	}

	go func() {
		err := submitter.SubmitSequential(run.ctx, items, r.catalog.BulkCreate)
		finishRun(run, result, err)
	}()

	return run, nil
}

func (r *Runner) startURLRun(opts RunOptions) (*Run, error) {
	urls := trimURLs(opts.URLs)
	if len(urls) == 0 {
		return nil, &MalformedInputError{Format: "url", Reason: "no URLs supplied"}
	}

	policy := opts.Policy
	if policy == "" {
		policy = ContinueOnError
	}
	_ = policy // per-URL failures never abort the group

	run := r.newRun(ModeBulkURLs, len(urls), 0)

	go func() {
		// Duplicate lookup happens inside the run: it is network work.
		registered, err := r.catalog.RegisteredSourceURLs(run.ctx)
		if err != nil {
			finishRun(run, &ImportResult{}, fmt.Errorf("failed to fetch registered items: %w", err))
			return
		}

		partition := PartitionURLs(urls, registered)
		skipped := append(partition.AlreadyRegistered, partition.DuplicateWithinBatch...)

		totalBatches := (len(partition.ToProcess) + r.cfg.BulkURLBatchSize - 1) / r.cfg.BulkURLBatchSize
		run.tracker.reconfigure(len(partition.ToProcess), totalBatches)

		result := &ImportResult{SkippedDuplicates: skipped}
		submitter := &BatchSubmitter{
			BatchSize:  r.cfg.BulkURLBatchSize,
			PoolSize:   r.cfg.URLPoolSize,
			GroupDelay: r.cfg.GroupDelay,
			Policy:     ContinueOnError,
			Tracker:    run.tracker,
			Result:     result,
		}

		err = submitter.SubmitURLGroups(run.ctx, partition.ToProcess, func(ctx context.Context, target string) error {
			return r.importURL(ctx, target, opts)
		})
		finishRun(run, result, err)
	}()

	return run, nil
}

// importURL processes one URL end to end: proxy fetch, heuristic
// analysis, then a single-item create.
func (r *Runner) importURL(ctx context.Context, target string, opts RunOptions) error {
	page, err := r.catalog.FetchPage(ctx, target)
	if err != nil {
		return err
	}

	analysis := AnalyzePage(page.Content, target)

	visibility := opts.Visibility
	if visibility == "" {
		visibility = entities.VisibilityPublic
	}

	item := NormalizedItem{
		Title:             analysis.Title,
		Description:       truncate(analysis.Description, maxDescriptionChars),
		FullInstructions:  analysis.Description,
		ItemType:          opts.ItemType,
		Visibility:        visibility,
		Tags:              urlTags(analysis),
		SourceURL:         target,
		IsMarketplaceItem: true,
	}

	_, err = r.catalog.CreateItem(ctx, item)
	return err
}

func urlTags(analysis PageAnalysis) []string {
	tags := []string{"imported", string(FormatURL), string(OriginBulkURLs)}
	if analysis.Category != "" {
		tags = append(tags, analysis.Category)
	}
	tags = append(tags, analysis.Features...)
	return tags
}

// finishRun folds the submitter outcome into a terminal phase.
func finishRun(run *Run, result *ImportResult, err error) {
	switch {
	case err != nil:
		run.transition(PhaseFailed, result, err)
	case result.Cancelled:
		run.transition(PhaseCancelled, result, nil)
	default:
		run.transition(PhaseCompleted, result, nil)
	}
}

func parsePayload(opts RunOptions) ([]ImportSourceRecord, error) {
	origin := opts.Origin
	if origin == "" {
		origin = OriginFile
	}
	switch opts.Format {
	case FormatJSON:
		return ParseJSON(opts.Payload, origin)
	case FormatJSONL:
		return ParseJSONL(opts.Payload, origin)
	case FormatCSV:
		return ParseCSV(opts.Payload, opts.ItemType, origin)
	default:
		return nil, &MalformedInputError{Format: string(opts.Format), Reason: "unsupported format"}
	}
}

// dropDuplicateSourceURLs removes within-run repeats of a non-empty
// source URL, keeping the first occurrence.
func dropDuplicateSourceURLs(items []NormalizedItem) ([]NormalizedItem, []string) {
	seen := make(map[string]bool, len(items))
	kept := items[:0]
	var skipped []string
	for _, item := range items {
		if item.SourceURL != "" {
			if seen[item.SourceURL] {
				skipped = append(skipped, item.SourceURL)
				continue
			}
			seen[item.SourceURL] = true
		}
		kept = append(kept, item)
	}
	return kept, skipped
}

func trimURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
