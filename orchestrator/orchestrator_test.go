package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rewritebot/browser"
	"rewritebot/categorizer"
	"rewritebot/config"
	"rewritebot/deduplication"
	"rewritebot/logger"
	"rewritebot/retry"
	"rewritebot/rewriter"
	"rewritebot/rssfeeds"
	"rewritebot/storage"
	"rewritebot/types"
	"rewritebot/validator"
)

// fakeFetcher serves listings and pages from maps.
type fakeFetcher struct {
	listings map[string][]rssfeeds.Candidate
	listErr  map[string]error
	pages    map[string]string
	fetched  []string
	onFetch  func()
}

func (f *fakeFetcher) Discover(_ context.Context, src config.Source) ([]rssfeeds.Candidate, error) {
	if err := f.listErr[src.Name]; err != nil {
		return nil, err
	}
	return f.listings[src.Name], nil
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (*browser.Page, error) {
	f.fetched = append(f.fetched, url)
	if f.onFetch != nil {
		f.onFetch()
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, &types.FetchError{URL: url, StatusCode: 404}
	}
	return &browser.Page{URL: url, FinalURL: url, StatusCode: 200, HTML: html}, nil
}

// fakeService answers every call with the same text or error.
type fakeService struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *fakeService) Complete(context.Context, rewriter.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) Publish(_ context.Context, a *types.RewrittenArticle) error {
	p.published = append(p.published, a.ID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

const rewrittenHTML = `<h2>Politie rukt uit voor brand in Rotterdamse haven</h2>
<h3>Grote rookontwikkeling</h3>
<p>In de haven van Rotterdam woedde dinsdagavond een grote brand in een loods. De brandweer had het vuur na enkele uren onder controle.</p>`

func page(title string, paragraphs ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><article><h1>%s</h1>", title, title)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "<p>%s</p>", p)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

var (
	firePage = page("Brand in haven",
		"De politie en brandweer rukten dinsdagavond uit voor een grote brand in een loods in de Rotterdamse haven.",
		"Er kwam veel rook vrij. Omwonenden kregen het advies ramen en deuren te sluiten.")
	poolPage = page("Nieuw zwembad geopend",
		"Het nieuwe zwembad in Zwolle opent maandag de deuren voor het publiek.",
		"Er is een glijbaan, een wedstrijdbad en een apart peuterbad voor de kleinsten.")
	burglaryPage = page("Inbraak bij juwelier",
		"De politie zoekt getuigen van een inbraak bij een juwelier in het centrum van Utrecht.",
		"De daders gingen er met sieraden vandoor. De recherche onderzoekt camerabeelden.")
)

type harness struct {
	o       *Orchestrator
	fetcher *fakeFetcher
	svc     *fakeService
	store   *storage.MemoryStore
	index   *deduplication.MemoryIndex
	locker  *deduplication.MemoryLocker
	pub     *recordingPublisher
	now     time.Time
}

func newHarness(t *testing.T, fetcher *fakeFetcher, svc *fakeService, mutate func(*Options)) *harness {
	t.Helper()
	policy := config.DefaultPolicy()
	cat, err := categorizer.New(policy)
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{
		fetcher: fetcher,
		svc:     svc,
		store:   storage.NewMemoryStore(),
		index:   deduplication.NewMemoryIndex(),
		locker:  deduplication.NewMemoryLocker(),
		pub:     &recordingPublisher{},
		now:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	dedup := deduplication.NewDeduplicator(h.index)
	rw := rewriter.New(svc, rewriter.Options{
		Style:         "Normal",
		Language:      "Dutch",
		MaxInputChars: 6000,
		Gate:          rewriter.NewRelevanceGate(policy.Relevance),
		Retry: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    4 * time.Second,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		},
	}, logger.Nop())

	sources := make([]config.Source, 0, len(fetcher.listings))
	for _, name := range []string{"nos", "politie", "broken"} {
		sources = append(sources, config.Source{Name: name, URL: "https://" + name + ".example/feed", Kind: config.SourceRSS})
	}
	opts := Options{
		Sources:           sources,
		ArticleLimit:      10,
		RunBudget:         time.Hour,
		StoreFailureLimit: 3,
		ScrapeInterval:    "1h",
	}
	if mutate != nil {
		mutate(&opts)
	}

	h.o = New(Deps{
		Fetcher:     fetcher,
		Extractor:   &rssfeeds.Extractor{MinBodyChars: 40},
		Dedup:       dedup,
		Locker:      h.locker,
		Rewriter:    rw,
		Categorizer: cat,
		Validator:   validator.New(60),
		Store:       h.store,
		Writer:      storage.NewWriter(h.store, dedup, "https://politie-forum.nl", logger.Nop()),
		Publisher:   h.pub,
	}, opts, logger.Nop())
	h.o.now = func() time.Time { return h.now }
	h.o.sleep = func(context.Context, time.Duration) error { return nil }
	return h
}

func candidates(source string, urls ...string) []rssfeeds.Candidate {
	out := make([]rssfeeds.Candidate, len(urls))
	for i, u := range urls {
		out[i] = rssfeeds.Candidate{URL: u, SourceName: source}
	}
	return out
}

func singleFire() *fakeFetcher {
	return &fakeFetcher{
		listings: map[string][]rssfeeds.Candidate{"nos": candidates("nos", "https://nos.nl/artikel/1")},
		pages:    map[string]string{"https://nos.nl/artikel/1": firePage},
	}
}

func TestRunOnceRewritesAndStores(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if s.Fetched != 1 || s.Extracted != 1 || s.Rewritten != 1 || s.Persisted != 1 || s.Failed != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if h.store.Count(storage.CollectionFull) != 1 || h.store.Count(storage.CollectionRewritten) != 1 {
		t.Fatalf("stored %d full, %d rewritten", h.store.Count(storage.CollectionFull), h.store.Count(storage.CollectionRewritten))
	}

	doc := h.store.All(storage.CollectionRewritten)[0]
	if doc["category"] != string(types.CategoryEmergencyResponse) {
		t.Errorf("category = %v", doc["category"])
	}
	if doc["title"] != "Politie rukt uit voor brand in Rotterdamse haven" {
		t.Errorf("title = %v", doc["title"])
	}
	if doc["original_url"] != "https://nos.nl/artikel/1" {
		t.Errorf("original_url = %v", doc["original_url"])
	}
	if len(h.pub.published) != 1 {
		t.Errorf("published %d messages", len(h.pub.published))
	}
	if n, _ := h.index.Count(context.Background()); n != 1 {
		t.Errorf("index holds %d records", n)
	}
	if s.NextRun.IsZero() {
		t.Errorf("next run not computed")
	}
}

func TestSecondRunSeesDuplicate(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, nil)
	ctx := context.Background()
	if _, err := h.o.RunOnce(ctx); err != nil {
		t.Fatal(err)
	}

	s, err := h.o.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Duplicates != 1 || s.Rewritten != 0 || s.Fetched != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if h.svc.calls != 1 {
		t.Errorf("service called %d times across both runs", h.svc.calls)
	}
	if len(h.fetcher.fetched) != 1 {
		t.Errorf("page fetched %d times", len(h.fetcher.fetched))
	}
	if h.store.Count(storage.CollectionRewritten) != 1 {
		t.Errorf("rewrite stored twice")
	}
}

func TestSameContentUnderNewURLIsDuplicate(t *testing.T) {
	f := &fakeFetcher{
		listings: map[string][]rssfeeds.Candidate{
			"nos": candidates("nos", "https://nos.nl/artikel/1", "https://nu.nl/artikel/9"),
		},
		pages: map[string]string{
			"https://nos.nl/artikel/1": firePage,
			"https://nu.nl/artikel/9":  firePage,
		},
	}
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Persisted != 1 || s.Duplicates != 1 || h.svc.calls != 1 {
		t.Fatalf("summary = %+v, calls = %d", s, h.svc.calls)
	}
}

func TestIrrelevantStoresOriginalOnly(t *testing.T) {
	f := &fakeFetcher{
		listings: map[string][]rssfeeds.Candidate{"nos": candidates("nos", "https://nos.nl/artikel/2")},
		pages:    map[string]string{"https://nos.nl/artikel/2": poolPage},
	}
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.svc.calls != 0 {
		t.Fatalf("rewriting service called %d times for an irrelevant article", h.svc.calls)
	}
	if s.Irrelevant != 1 || s.Persisted != 1 || s.Rewritten != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if h.store.Count(storage.CollectionFull) != 1 || h.store.Count(storage.CollectionRewritten) != 0 {
		t.Fatalf("unexpected store contents")
	}
}

func TestRateLimitExhaustionFailsArticle(t *testing.T) {
	svc := &fakeService{err: &types.RateLimitError{}}
	h := newHarness(t, singleFire(), svc, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("per-article failure must not fail the run: %v", err)
	}
	if s.Failed != 1 || s.Rewritten != 0 || s.Persisted != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if s.FailuresByKind[types.KindRateLimit] != 1 {
		t.Fatalf("failures by kind = %v", s.FailuresByKind)
	}
	if svc.calls != 3 {
		t.Fatalf("service called %d times, want 3", svc.calls)
	}
	if h.store.Count(storage.CollectionFull) != 0 {
		t.Fatalf("failed article must stay eligible for the next run")
	}
}

func TestRejectedRewriteKeepsOriginal(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: "<p>Te kort.</p>"}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Rejected != 1 || s.Persisted != 1 || s.Rewritten != 0 {
		t.Fatalf("summary = %+v", s)
	}
	if s.FailuresByKind[types.KindValidation] != 1 {
		t.Fatalf("failures by kind = %v", s.FailuresByKind)
	}
	if h.store.Count(storage.CollectionRewritten) != 0 || h.store.Count(storage.CollectionFull) != 1 {
		t.Fatalf("unexpected store contents")
	}
}

func TestUnsafeMarkupIsStripped(t *testing.T) {
	html := rewrittenHTML + `<script>alert(1)</script><p onclick="x()">Meer informatie volgt later vandaag.</p>`
	h := newHarness(t, singleFire(), &fakeService{text: html}, nil)

	if _, err := h.o.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	content, _ := h.store.All(storage.CollectionRewritten)[0]["content"].(string)
	if strings.Contains(content, "<script") || strings.Contains(content, "onclick") {
		t.Fatalf("unsafe markup stored: %s", content)
	}
}

func TestLockHeldIsFatal(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, nil)
	if _, err := h.locker.Acquire(context.Background(), "other-run", time.Hour); err != nil {
		t.Fatal(err)
	}

	_, err := h.o.RunOnce(context.Background())
	if !errors.Is(err, deduplication.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if len(h.fetcher.fetched) != 0 {
		t.Fatalf("fetched pages without the lock")
	}
}

func TestStoreUnreachableIsFatal(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, nil)
	h.store.PingErr = errors.New("connection refused")

	_, err := h.o.RunOnce(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	// the lock must be released for the next run
	h.store.PingErr = nil
	if _, err := h.o.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func manyArticles(n int) *fakeFetcher {
	f := &fakeFetcher{listings: map[string][]rssfeeds.Candidate{}, pages: map[string]string{}}
	for i := 0; i < n; i++ {
		u := fmt.Sprintf("https://politie.nl/nieuws/%d", i)
		f.listings["politie"] = append(f.listings["politie"], rssfeeds.Candidate{URL: u, SourceName: "politie"})
		f.pages[u] = page(fmt.Sprintf("Inbraak nummer %d", i),
			fmt.Sprintf("De politie onderzoekt inbraak nummer %d bij een woning in de wijk.", i),
			"De daders gingen er met sieraden vandoor. De recherche onderzoekt camerabeelden.")
	}
	return f
}

func TestArticleLimitStopsRun(t *testing.T) {
	f := manyArticles(5)
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, func(o *Options) { o.ArticleLimit = 2 })

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.fetched) != 2 {
		t.Fatalf("fetched %d pages, want 2", len(f.fetched))
	}
	if !s.StoppedEarly || s.StopReason != StopArticleLimit {
		t.Fatalf("stop = %v %q", s.StoppedEarly, s.StopReason)
	}
	// discovery order
	if f.fetched[0] != "https://politie.nl/nieuws/0" || f.fetched[1] != "https://politie.nl/nieuws/1" {
		t.Fatalf("fetched out of order: %v", f.fetched)
	}
}

func TestRunBudgetStopsRun(t *testing.T) {
	f := manyArticles(5)
	var h *harness
	f.onFetch = func() { h.now = h.now.Add(2 * time.Minute) }
	h = newHarness(t, f, &fakeService{text: rewrittenHTML}, func(o *Options) { o.RunBudget = 3 * time.Minute })

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.fetched) != 2 {
		t.Fatalf("fetched %d pages, want 2", len(f.fetched))
	}
	if s.StopReason != StopRunBudget {
		t.Fatalf("stop reason = %q", s.StopReason)
	}
	// the in-flight article finished
	if s.Persisted != 2 {
		t.Fatalf("persisted = %d", s.Persisted)
	}
}

func TestCancelledContextStopsBeforeWork(t *testing.T) {
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := h.o.RunOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.StopReason != StopCancelled || len(h.fetcher.fetched) != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestConsecutiveStoreFailuresAbortRun(t *testing.T) {
	f := manyArticles(5)
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, func(o *Options) { o.StoreFailureLimit = 2 })
	h.store.CreateErr = func(string, string) error { return errors.New("deadline exceeded") }

	s, err := h.o.RunOnce(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if s.Failed != 2 || s.FailuresByKind[types.KindPersistence] != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if len(f.fetched) != 2 {
		t.Fatalf("kept going after the store failed: %d fetches", len(f.fetched))
	}
	if n, _ := h.index.Count(context.Background()); n != 0 {
		t.Fatalf("dedup index recorded %d unpersisted articles", n)
	}
}

func TestBrokenSourceIsSkipped(t *testing.T) {
	f := &fakeFetcher{
		listings: map[string][]rssfeeds.Candidate{
			"politie": candidates("politie", "https://politie.nl/nieuws/juwelier"),
		},
		listErr: map[string]error{"nos": &types.FetchError{URL: "https://nos.example/feed", StatusCode: 503}},
		pages:   map[string]string{"https://politie.nl/nieuws/juwelier": burglaryPage},
	}
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.SourcesFailed != 1 || s.FailuresByKind[types.KindFetch] != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Persisted != 1 {
		t.Fatalf("other sources not processed: %+v", s)
	}
}

func TestMissingPageCountsAsFetchFailure(t *testing.T) {
	f := &fakeFetcher{listings: map[string][]rssfeeds.Candidate{"nos": candidates("nos", "https://nos.nl/weg")}}
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Failed != 1 || s.FailuresByKind[types.KindFetch] != 1 || s.Fetched != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	var out bytes.Buffer
	h := newHarness(t, singleFire(), &fakeService{text: rewrittenHTML}, func(o *Options) {
		o.DryRun = true
		o.SummaryOut = &out
	})

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !s.DryRun || s.Rewritten != 1 || s.Persisted != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if h.store.Count(storage.CollectionFull) != 0 || h.store.Count(storage.CollectionRewritten) != 0 {
		t.Fatalf("dry run wrote to the store")
	}
	if n, _ := h.index.Count(context.Background()); n != 0 {
		t.Fatalf("dry run recorded %d dedup entries", n)
	}
	if len(h.pub.published) != 0 {
		t.Fatalf("dry run published")
	}
	if !strings.Contains(out.String(), "dry run") {
		t.Fatalf("rendered summary missing dry run marker:\n%s", out.String())
	}
}

func TestProcessedAddsUp(t *testing.T) {
	f := &fakeFetcher{
		listings: map[string][]rssfeeds.Candidate{
			"nos":     candidates("nos", "https://nos.nl/artikel/1", "https://nos.nl/artikel/2", "https://nos.nl/weg"),
			"politie": candidates("politie", "https://politie.nl/nieuws/juwelier", "https://nos.nl/artikel/1"),
		},
		pages: map[string]string{
			"https://nos.nl/artikel/1":           firePage,
			"https://nos.nl/artikel/2":           poolPage,
			"https://politie.nl/nieuws/juwelier": burglaryPage,
		},
	}
	h := newHarness(t, f, &fakeService{text: rewrittenHTML}, nil)

	s, err := h.o.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Processed() != 5 {
		t.Fatalf("processed = %d, summary = %+v", s.Processed(), s)
	}
	if s.Persisted != 3 || s.Duplicates != 1 || s.Failed != 1 || s.Irrelevant != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateDiscovered, StateFetched, true},
		{StateDiscovered, StateDuplicate, true},
		{StateFetched, StateExtracted, true},
		{StateExtracted, StateIrrelevant, true},
		{StateExtracted, StateRewritePending, true},
		{StateRewritePending, StateRewritten, true},
		{StateRewritten, StateRejected, true},
		{StateValidated, StatePersisted, true},
		{StateDiscovered, StatePersisted, false},
		{StateFetched, StateRewritten, false},
		{StateRewritePending, StateIrrelevant, false},
		{StatePersisted, StateFailed, false},
		{StateFailed, StateFetched, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
	for _, s := range []State{StateDuplicate, StateIrrelevant, StateRejected, StateFailed, StatePersisted} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		if len(transitions[s]) != 0 {
			t.Errorf("terminal %s has outgoing transitions", s)
		}
	}
}

func TestIllegalMovePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	it := newItem()
	it.move(StatePersisted)
}

func TestRenderSummary(t *testing.T) {
	s := types.NewRunSummary("run-1", time.Now())
	s.Persisted = 2
	s.RecordFailure(&types.FetchError{URL: "https://x", StatusCode: 500})
	out := RenderSummary(s, errors.New("boom"))
	for _, want := range []string{"persisted", "fetch=1", "fatal: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
