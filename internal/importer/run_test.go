package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containerhub/containerhub/internal/entities"
)

// fakeCatalog is an in-memory Catalog with optional hooks for
// controlling timing and failures.
type fakeCatalog struct {
	mu         sync.Mutex
	created    []NormalizedItem
	registered []string
	pages      map[string]string
	failFetch  map[string]error

	beforeBulk func() // called before every BulkCreate
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{pages: make(map[string]string), failFetch: make(map[string]error)}
}

func (f *fakeCatalog) CreateItem(_ context.Context, item NormalizedItem) (*CreatedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, item)
	return &CreatedItem{ID: uint(len(f.created)), Title: item.Title}, nil
}

func (f *fakeCatalog) BulkCreate(_ context.Context, items []NormalizedItem) (int, error) {
	if f.beforeBulk != nil {
		f.beforeBulk()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, items...)
	return len(items), nil
}

func (f *fakeCatalog) RegisteredSourceURLs(_ context.Context) ([]string, error) {
	return f.registered, nil
}

func (f *fakeCatalog) FetchPage(_ context.Context, target string) (*FetchResult, error) {
	if err := f.failFetch[target]; err != nil {
		return nil, err
	}
	return &FetchResult{Content: f.pages[target], ContentType: "text/html"}, nil
}

func (f *fakeCatalog) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func waitForTerminal(t *testing.T, run *Run) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !run.Phase().Terminal() {
		select {
		case <-deadline:
			t.Fatalf("run did not finish, phase %s", run.Phase())
		case <-time.After(time.Millisecond):
		}
	}
}

func appJSON(n int) []byte {
	var b strings.Builder
	b.WriteString(`{"apps": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"name": "App`)
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(`", "description": "`)
		b.WriteString(strings.Repeat("d", 60))
		b.WriteString(`"}`)
	}
	b.WriteString(`]}`)
	return []byte(b.String())
}

func TestRunner_MalformedInputFailsSynchronously(t *testing.T) {
	runner := NewRunner(newFakeCatalog(), RunnerConfig{})

	_, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  []byte(`{"broken`),
	})

	require.Error(t, err)
	assert.True(t, IsMalformedInput(err))
}

func TestRunner_RejectsInvalidItemType(t *testing.T) {
	runner := NewRunner(newFakeCatalog(), RunnerConfig{})

	_, err := runner.Start(RunOptions{Mode: ModeFile, ItemType: "gadget", Format: FormatJSON, Payload: appJSON(1)})
	require.Error(t, err)
}

func TestRunner_RejectsInvalidMode(t *testing.T) {
	runner := NewRunner(newFakeCatalog(), RunnerConfig{})

	_, err := runner.Start(RunOptions{Mode: "streaming", ItemType: entities.ItemTypeApp})
	require.Error(t, err)
}

func TestRunner_FileRunCompletes(t *testing.T) {
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{FileBatchSize: 2})

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Origin:   OriginFile,
		Payload:  appJSON(5),
	})
	require.NoError(t, err)

	waitForTerminal(t, run)
	assert.Equal(t, PhaseCompleted, run.Phase())
	assert.Equal(t, 5, cat.createdCount())

	result, err := run.Result()
	require.NoError(t, err)
	assert.Equal(t, 5, result.Created)
	assert.Equal(t, 0, result.Failed)

	progress := run.Progress()
	assert.Equal(t, 5, progress.ItemsProcessed)
	assert.Equal(t, 3, progress.CompletedBatches)
}

func TestRunner_VoiceRunsUseSmallerBatches(t *testing.T) {
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{VoiceBatchSize: 2, FileBatchSize: 25})

	var payload strings.Builder
	payload.WriteString(`{"agents": [`)
	for i := 0; i < 4; i++ {
		if i > 0 {
			payload.WriteString(",")
		}
		payload.WriteString(`{"name": "V", "prompt": "` + strings.Repeat("p", 60) + `"}`)
	}
	payload.WriteString(`]}`)

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeVoice,
		Format:   FormatJSON,
		Payload:  []byte(payload.String()),
	})
	require.NoError(t, err)

	waitForTerminal(t, run)
	assert.Equal(t, 2, run.Progress().TotalBatches)
}

func TestRunner_ResultUnavailableWhileRunning(t *testing.T) {
	cat := newFakeCatalog()
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	cat.beforeBulk = func() {
		once.Do(func() { close(started) })
		<-release
	}

	runner := NewRunner(cat, RunnerConfig{FileBatchSize: 25})
	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  appJSON(3),
	})
	require.NoError(t, err)

	<-started
	_, err = run.Result()
	assert.ErrorIs(t, err, ErrRunNotFinished)
	assert.Equal(t, PhaseRunning, run.Phase())

	close(release)
	waitForTerminal(t, run)
	_, err = run.Result()
	assert.NoError(t, err)
}

func TestRunner_CancelStopsAtNextCheckpoint(t *testing.T) {
	cat := newFakeCatalog()
	firstBatch := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	cat.beforeBulk = func() {
		// Hold the first batch in flight until the test has cancelled.
		once.Do(func() {
			close(firstBatch)
			<-release
		})
	}

	runner := NewRunner(cat, RunnerConfig{FileBatchSize: 1})
	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  appJSON(5),
	})
	require.NoError(t, err)

	<-firstBatch
	run.Cancel()
	close(release)
	waitForTerminal(t, run)

	assert.Equal(t, PhaseCancelled, run.Phase())
	result, err := run.Result()
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	// The in-flight batch completed; nothing after the checkpoint ran.
	assert.Equal(t, 1, result.Created)
}

func TestRunner_CancelAfterFinishIsNoOp(t *testing.T) {
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{})

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  appJSON(1),
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	run.Cancel()
	assert.Equal(t, PhaseCompleted, run.Phase())
}

func TestRunner_FileRunSkipsDuplicateSourceURLs(t *testing.T) {
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{})

	desc := strings.Repeat("d", 60)
	payload := `[
		{"name": "A", "url": "https://a.example.com", "description": "` + desc + `"},
		{"name": "A again", "url": "https://a.example.com", "description": "` + desc + `"},
		{"name": "B", "url": "https://b.example.com", "description": "` + desc + `"}
	]`

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  []byte(payload),
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	result, err := run.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, []string{"https://a.example.com"}, result.SkippedDuplicates)
}

func TestRunner_URLRunDedupsAgainstCatalog(t *testing.T) {
	cat := newFakeCatalog()
	cat.registered = []string{"https://known.example.com"}
	cat.pages["https://new.example.com"] = `<title>New App</title><p>` + strings.Repeat("x", 40) + `</p>`

	runner := NewRunner(cat, RunnerConfig{URLPoolSize: 3})
	run, err := runner.Start(RunOptions{
		Mode:     ModeBulkURLs,
		ItemType: entities.ItemTypeApp,
		URLs:     []string{"https://known.example.com", "https://new.example.com", "https://new.example.com"},
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	assert.Equal(t, PhaseCompleted, run.Phase())
	result, err := run.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.ElementsMatch(t, []string{"https://known.example.com", "https://new.example.com"}, result.SkippedDuplicates)
	assert.Equal(t, 1, cat.createdCount())
}

func TestRunner_URLRunBatchesByBulkURLBatchSize(t *testing.T) {
	cat := newFakeCatalog()
	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://app%d.example.com", i)
		cat.pages[urls[i]] = `<title>App</title><p>` + strings.Repeat("x", 40) + `</p>`
	}

	runner := NewRunner(cat, RunnerConfig{BulkURLBatchSize: 2, URLPoolSize: 3})
	run, err := runner.Start(RunOptions{
		Mode:     ModeBulkURLs,
		ItemType: entities.ItemTypeApp,
		URLs:     urls,
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	progress := run.Progress()
	assert.Equal(t, 3, progress.TotalBatches) // 2+2+1
	assert.Equal(t, 3, progress.CompletedBatches)
	assert.Equal(t, 5, progress.ItemsProcessed)
}

func TestRunner_URLRunRecordsFetchFailures(t *testing.T) {
	cat := newFakeCatalog()
	cat.pages["https://ok.example.com"] = `<title>OK</title>`
	cat.failFetch["https://gone.example.com"] = &RequestError{StatusCode: 404, Message: "not found"}

	runner := NewRunner(cat, RunnerConfig{URLPoolSize: 3})
	run, err := runner.Start(RunOptions{
		Mode:     ModeBulkURLs,
		ItemType: entities.ItemTypeApp,
		URLs:     []string{"https://ok.example.com", "https://gone.example.com"},
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	assert.Equal(t, PhaseCompleted, run.Phase())
	result, err := run.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)

	summary := Summarize(result)
	assert.Equal(t, []string{"https://gone.example.com"}, summary.FailuresByClass[FailureNotFound])
}

func TestRunner_URLRunRejectsEmptyList(t *testing.T) {
	runner := NewRunner(newFakeCatalog(), RunnerConfig{})

	_, err := runner.Start(RunOptions{
		Mode:     ModeBulkURLs,
		ItemType: entities.ItemTypeApp,
		URLs:     []string{"", "   "},
	})
	require.Error(t, err)
	assert.True(t, IsMalformedInput(err))
}

func TestRunner_ImportedURLItemShape(t *testing.T) {
	cat := newFakeCatalog()
	cat.pages["https://paint.example.com"] = `<title>Paint Studio</title><h1>Draw and sketch</h1>` +
		`<meta name="description" content="A drawing studio for quick sketches.">`

	runner := NewRunner(cat, RunnerConfig{})
	run, err := runner.Start(RunOptions{
		Mode:     ModeBulkURLs,
		ItemType: entities.ItemTypeApp,
		URLs:     []string{"https://paint.example.com"},
	})
	require.NoError(t, err)
	waitForTerminal(t, run)

	require.Equal(t, 1, cat.createdCount())
	item := cat.created[0]
	assert.Equal(t, "Paint Studio", item.Title)
	assert.Equal(t, "A drawing studio for quick sketches.", item.Description)
	assert.Equal(t, "https://paint.example.com", item.SourceURL)
	assert.True(t, item.IsMarketplaceItem)
	assert.Contains(t, item.Tags, "imported")
	assert.Contains(t, item.Tags, "Drawing & Graphics")
}

func TestRegistry_AddGetSweep(t *testing.T) {
	reg := NewRegistry(time.Minute)
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{})

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  appJSON(1),
	})
	require.NoError(t, err)
	reg.Add(run)

	got, err := reg.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	waitForTerminal(t, run)

	// Within retention: survives the sweep.
	reg.Sweep()
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_SweepEvictsExpiredRuns(t *testing.T) {
	reg := NewRegistry(time.Nanosecond)
	cat := newFakeCatalog()
	runner := NewRunner(cat, RunnerConfig{})

	run, err := runner.Start(RunOptions{
		Mode:     ModeFile,
		ItemType: entities.ItemTypeApp,
		Format:   FormatJSON,
		Payload:  appJSON(1),
	})
	require.NoError(t, err)
	reg.Add(run)
	waitForTerminal(t, run)

	time.Sleep(5 * time.Millisecond)
	reg.Sweep()
	assert.Equal(t, 0, reg.Len())
}
