package coordinator_test

import (
	"errors"
	"testing"
	"testing/fstest"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/fs"
	"go.trai.ch/stencil/internal/adapters/markers"
	"go.trai.ch/stencil/internal/adapters/metrics"
	"go.trai.ch/stencil/internal/adapters/telemetry"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.trai.ch/stencil/internal/engine/coordinator"
	"go.uber.org/mock/gomock"
)

const (
	wsRoot   = "/ws"
	crumb    = domain.LogicalName("Nav/Crumb")
	page     = "/ws/site/Templates/Page.html"
	vendorNC = "/ws/vendor/Partials/Nav/Crumb.html"
	siteNC   = "/ws/site/Partials/Nav/Crumb.html"
)

var (
	ctxMain  = domain.NewContextID("main", "html")
	crumbKey = domain.Key{Context: ctxMain, Kind: domain.KindPartial, Name: crumb}
)

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func baseFiles() fstest.MapFS {
	return fstest.MapFS{
		"vendor/Partials/Nav/Crumb.html": file(`<h2>Vendor crumb</h2>`),
		"vendor/Partials/Footer.html":    file(`<h2>Footer</h2>`),
		"site/Templates/Page.html":       file(`<h1>Page</h1><f:render partial="Nav/Crumb"/>`),
		"site/Templates/Other.html":      file(`<h1>Other</h1><f:render partial="Footer"/>`),
	}
}

func mainContext(id domain.ContextID) domain.ContextConfig {
	return domain.ContextConfig{ID: id, Fragments: []domain.ConfigFragment{
		{Context: id, Kind: domain.KindPartial, Paths: []string{"vendor/Partials", "site/Partials"}},
		{Context: id, Kind: domain.KindTemplate, Paths: []string{"site/Templates"}, Order: 1},
	}}
}

func newWorkspace() *domain.Workspace {
	ws := domain.NewWorkspace(wsRoot)
	ws.Debounce = 50 * time.Millisecond
	ws.Contexts = []domain.ContextConfig{mainContext(ctxMain)}
	return ws
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

func newCoordinator(
	t *testing.T,
	files fstest.MapFS,
	ws *domain.Workspace,
	opts ...func(*coordinator.Deps),
) *coordinator.Coordinator {
	t.Helper()
	ctrl := gomock.NewController(t)
	fsys := fs.NewMapFSAdapter(wsRoot, files)

	deps := coordinator.Deps{
		FS:        fsys,
		Walker:    fs.NewWalker(fsys),
		Extractor: markers.NewRegistry(),
		Logger:    quietLogger(ctrl),
		Tracer:    telemetry.NewNoOpTracer(),
		Metrics:   metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	c, err := coordinator.New(coordinator.Options{Workspace: ws}, deps)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func started(t *testing.T, files fstest.MapFS) *coordinator.Coordinator {
	t.Helper()
	c := newCoordinator(t, files, newWorkspace())
	c.Start()
	return c
}

func headings(t *testing.T, res *domain.FlattenResult) []string {
	t.Helper()
	var out []string
	for _, n := range res.Headings() {
		out = append(out, n.Text)
	}
	return out
}

func receive(t *testing.T, ch <-chan domain.Publication) domain.Publication {
	t.Helper()
	select {
	case pub, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return pub
	default:
		require.FailNow(t, "no publication")
		return domain.Publication{}
	}
}

func TestNew_RequiresWorkspace(t *testing.T) {
	_, err := coordinator.New(coordinator.Options{}, coordinator.Deps{})
	require.Error(t, err)
}

func TestStart_IndexesWorkspace(t *testing.T) {
	c := started(t, baseFiles())

	assert.Equal(t, []domain.ContextID{ctxMain}, c.Contexts())
	assert.Equal(t, []string{
		"/ws/site/Templates/Other.html",
		page,
		"/ws/vendor/Partials/Footer.html",
		vendorNC,
	}, c.Files())
	assert.Equal(t, uint64(1), c.BatchCount())
	assert.Equal(t, coordinator.StateIdle, c.State())

	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, vendorNC, impl.Path)
	assert.Equal(t, "/ws/vendor/Partials", impl.Root)

	set, ok := c.RootPaths(ctxMain)
	require.True(t, ok)
	assert.Equal(t, []string{"/ws/vendor/Partials", "/ws/site/Partials"}, set.Paths(domain.KindPartial))
}

func TestStart_PublishesRebuild(t *testing.T) {
	c := newCoordinator(t, baseFiles(), newWorkspace())
	ch, cancel := c.Subscribe(4)
	defer cancel()

	c.Start()

	pub := receive(t, ch)
	assert.True(t, pub.Rebuilt)
	assert.Equal(t, uint64(1), pub.Batch)
	require.Len(t, pub.Contexts, 1)
	assert.Equal(t, ctxMain, pub.Contexts[0].Context)
	assert.True(t, pub.Contexts[0].Old.IsZero())
	for _, change := range pub.Changes {
		assert.Equal(t, domain.ChangeIntroduced, change.Type(), change.Key.String())
	}
}

func TestBatch_SiteOverrideIsIntroducedThenFallbackIsChanged(t *testing.T) {
	files := baseFiles()
	c := started(t, files)
	ch, cancel := c.Subscribe(4)
	defer cancel()

	res, err := c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Vendor crumb"}, headings(t, res))

	files["site/Partials/Nav/Crumb.html"] = file(`<h2>Site crumb</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: siteNC}))
	c.Flush()

	pub := receive(t, ch)
	require.Len(t, pub.Changes, 1)
	change := pub.Changes[0]
	assert.Equal(t, crumbKey, change.Key)
	assert.Equal(t, domain.ChangeIntroduced, change.Type())
	assert.Equal(t, vendorNC, change.Old.Path)
	assert.Equal(t, siteNC, change.New.Path)
	assert.Contains(t, pub.EntryPoints, domain.EntryPoint{File: page, Context: ctxMain})
	assert.Equal(t, []string{siteNC}, pub.Files)

	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, siteNC, impl.Path)

	res, err = c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Site crumb"}, headings(t, res))

	delete(files, "site/Partials/Nav/Crumb.html")
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileRemoved, Path: siteNC}))
	c.Flush()

	pub = receive(t, ch)
	require.Len(t, pub.Changes, 1)
	assert.Equal(t, domain.ChangeChanged, pub.Changes[0].Type())
	assert.Equal(t, vendorNC, pub.Changes[0].New.Path)

	res, err = c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Vendor crumb"}, headings(t, res))
}

func TestBatch_RemovingLastCandidateIsRemoved(t *testing.T) {
	files := baseFiles()
	c := started(t, files)
	ch, cancel := c.Subscribe(4)
	defer cancel()

	delete(files, "vendor/Partials/Nav/Crumb.html")
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileRemoved, Path: vendorNC}))
	c.Flush()

	pub := receive(t, ch)
	require.Len(t, pub.Changes, 1)
	assert.Equal(t, domain.ChangeRemoved, pub.Changes[0].Type())

	_, ok := c.Resolve(crumbKey)
	assert.False(t, ok)

	res, err := c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	diags := res.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, domain.DiagnosticUnresolved, diags[0].Diagnostic)
	assert.Equal(t, "Nav/Crumb", diags[0].Text)
}

func TestBatch_EvictsOnlyImpactedOutlines(t *testing.T) {
	files := baseFiles()
	c := started(t, files)

	pageEP := domain.EntryPoint{File: page, Context: ctxMain}
	otherEP := domain.EntryPoint{File: "/ws/site/Templates/Other.html", Context: ctxMain}

	pageBefore, err := c.Flatten(pageEP)
	require.NoError(t, err)
	otherBefore, err := c.Flatten(otherEP)
	require.NoError(t, err)

	files["site/Partials/Nav/Crumb.html"] = file(`<h2>Site crumb</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: siteNC}))
	c.Flush()

	pageAfter, err := c.Flatten(pageEP)
	require.NoError(t, err)
	otherAfter, err := c.Flatten(otherEP)
	require.NoError(t, err)

	assert.NotSame(t, pageBefore, pageAfter)
	assert.Same(t, otherBefore, otherAfter)
}

func TestBatch_ModifiedIncludeReachesEntryPoints(t *testing.T) {
	files := baseFiles()
	c := started(t, files)
	ch, cancel := c.Subscribe(4)
	defer cancel()

	files["vendor/Partials/Nav/Crumb.html"] = file(`<h2>Vendor crumb v2</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: vendorNC}))
	c.Flush()

	pub := receive(t, ch)
	assert.Empty(t, pub.Changes)
	assert.Contains(t, pub.EntryPoints, domain.EntryPoint{File: page, Context: ctxMain})
	assert.Contains(t, pub.EntryPoints, domain.EntryPoint{File: vendorNC, Context: ctxMain})

	res, err := c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Vendor crumb v2"}, headings(t, res))
}

func TestBatch_UnchangedContentIsSkipped(t *testing.T) {
	c := started(t, baseFiles())
	ch, cancel := c.Subscribe(4)
	defer cancel()

	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: vendorNC}))
	c.Flush()

	pub := receive(t, ch)
	assert.Empty(t, pub.Files)
	assert.Empty(t, pub.EntryPoints)
	assert.Equal(t, 1, pub.Events)
}

func TestBatch_MoveReindexesBothPaths(t *testing.T) {
	files := baseFiles()
	c := started(t, files)

	files["site/Partials/Nav/Crumb.html"] = files["vendor/Partials/Nav/Crumb.html"]
	delete(files, "vendor/Partials/Nav/Crumb.html")
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileMoved, Path: siteNC, From: vendorNC}))
	c.Flush()

	assert.Contains(t, c.Files(), siteNC)
	assert.NotContains(t, c.Files(), vendorNC)
	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, siteNC, impl.Path)
}

func TestBatch_CoalescesEventsWithinWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		files := baseFiles()
		c := started(t, files)
		ch, cancel := c.Subscribe(4)
		defer cancel()

		for i := range 5 {
			files["vendor/Partials/Footer.html"] = file("<h2>Footer " + string(rune('a'+i)) + "</h2>")
			require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: "/ws/vendor/Partials/Footer.html"}))
			time.Sleep(10 * time.Millisecond)
		}
		synctest.Wait()
		assert.Equal(t, uint64(1), c.BatchCount())
		assert.Equal(t, coordinator.StateCollecting, c.State())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, uint64(2), c.BatchCount())
		assert.Equal(t, coordinator.StateIdle, c.State())
		pub := receive(t, ch)
		assert.Equal(t, 5, pub.Events)
		assert.Equal(t, []string{"/ws/vendor/Partials/Footer.html"}, pub.Files)
	})
}

func TestBatch_PauseDefersUntilResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		files := baseFiles()
		c := started(t, files)
		ch, cancel := c.Subscribe(4)
		defer cancel()

		require.NoError(t, c.Submit(domain.IndexingEvent{Paused: true}))
		assert.True(t, c.Paused())

		files["site/Partials/Nav/Crumb.html"] = file(`<h2>Site crumb</h2>`)
		require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: siteNC}))
		require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: page}))
		require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: vendorNC}))

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, uint64(1), c.BatchCount())

		require.NoError(t, c.Submit(domain.IndexingEvent{Paused: false}))
		synctest.Wait()

		assert.False(t, c.Paused())
		assert.Equal(t, uint64(2), c.BatchCount())
		pub := receive(t, ch)
		assert.Equal(t, 3, pub.Events)
		require.Len(t, pub.Changes, 1)
		assert.Equal(t, domain.ChangeIntroduced, pub.Changes[0].Type())
	})
}

func TestBatch_ConfigErrorKeepsPreviousRoots(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	gomock.InOrder(
		loader.EXPECT().Load(wsRoot).Return(newWorkspace(), nil),
		loader.EXPECT().Load(wsRoot).Return(nil, errors.New("yaml: line 3: did not find expected key")),
	)

	c := newCoordinator(t, baseFiles(), newWorkspace(), func(d *coordinator.Deps) { d.Config = loader })
	c.Start()
	before, ok := c.RootPaths(ctxMain)
	require.True(t, ok)

	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: "/ws/stencil.yaml"}))
	c.Flush()

	after, ok := c.RootPaths(ctxMain)
	require.True(t, ok)
	assert.True(t, before.Equal(after))
	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, vendorNC, impl.Path)
}

func TestBatch_ConfigEventTearsDownUndeclaredContexts(t *testing.T) {
	c := started(t, baseFiles())
	ch, cancel := c.Subscribe(4)
	defer cancel()

	ctxPrint := domain.NewContextID("main", "print")
	next := newWorkspace()
	next.Contexts = []domain.ContextConfig{mainContext(ctxPrint)}

	require.NoError(t, c.Submit(domain.ConfigEvent{Workspace: next}))
	c.Flush()

	assert.Equal(t, []domain.ContextID{ctxPrint}, c.Contexts())

	pub := receive(t, ch)
	assert.False(t, pub.Rebuilt)
	require.Len(t, pub.Contexts, 2)
	for _, cc := range pub.Contexts {
		switch cc.Context {
		case ctxMain:
			assert.True(t, cc.New.IsZero())
		case ctxPrint:
			assert.True(t, cc.Old.IsZero())
		}
	}

	var removed, introduced int
	for _, change := range pub.Changes {
		switch {
		case change.Key.Context == ctxMain && change.Type() == domain.ChangeRemoved:
			removed++
		case change.Key.Context == ctxPrint && change.Type() == domain.ChangeIntroduced:
			introduced++
		}
	}
	assert.Positive(t, removed)
	assert.Equal(t, removed, introduced)

	_, err := c.Parents(ctxMain, crumb)
	require.ErrorContains(t, err, domain.ErrUnknownContext.Error())

	impl, ok := c.Resolve(domain.Key{Context: ctxPrint, Kind: domain.KindPartial, Name: crumb})
	require.True(t, ok)
	assert.Equal(t, vendorNC, impl.Path)
}

func TestBatch_SuffixChangeRebuilds(t *testing.T) {
	c := started(t, baseFiles())
	ch, cancel := c.Subscribe(4)
	defer cancel()

	next := newWorkspace()
	next.Suffixes = []string{".html", ".txt"}
	require.NoError(t, c.Submit(domain.ConfigEvent{Workspace: next}))
	c.Flush()

	pub := receive(t, ch)
	assert.True(t, pub.Rebuilt)
	assert.Empty(t, pub.Changes)
	assert.Equal(t, []string{".html", ".txt"}, c.Workspace().Suffixes)
}

func TestBatch_RediscoversKindDirectories(t *testing.T) {
	files := fstest.MapFS{
		"vendor/acme/Partials/Box.html": file(`<h2>Box</h2>`),
	}
	c := newCoordinator(t, files, domain.NewWorkspace(wsRoot))
	c.Start()

	id := domain.DefaultContext()
	_, ok := c.Resolve(domain.Key{Context: id, Kind: domain.KindPartial, Name: "Card"})
	assert.False(t, ok)

	files["ext/Partials/Card.html"] = file(`<h2>Card</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: "/ws/ext/Partials"}))
	c.Flush()

	set, ok := c.RootPaths(id)
	require.True(t, ok)
	assert.Equal(t, []string{"/ws/vendor/acme/Partials", "/ws/ext/Partials"}, set.Paths(domain.KindPartial))

	impl, ok := c.Resolve(domain.Key{Context: id, Kind: domain.KindPartial, Name: "Card"})
	require.True(t, ok)
	assert.Equal(t, "/ws/ext/Partials/Card.html", impl.Path)
}

func TestBatch_ReportsDegradedFiles(t *testing.T) {
	files := baseFiles()
	files["site/Templates/Broken.html"] = &fstest.MapFile{Data: []byte{0xff, 0xfe, '<'}}
	c := started(t, files)

	assert.Equal(t, []string{"/ws/site/Templates/Broken.html"}, c.Degraded())
	assert.Contains(t, c.Files(), "/ws/site/Templates/Broken.html")

	ch, cancel := c.Subscribe(4)
	defer cancel()

	files["site/Templates/Broken.html"] = file(`<h1>Fixed</h1>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileModified, Path: "/ws/site/Templates/Broken.html"}))
	c.Flush()

	pub := receive(t, ch)
	assert.Empty(t, pub.Degraded)
	assert.Empty(t, c.Degraded())
}

func TestRebuildAll_PicksUpUnreportedChanges(t *testing.T) {
	files := baseFiles()
	c := started(t, files)
	ch, cancel := c.Subscribe(4)
	defer cancel()

	files["site/Partials/Nav/Crumb.html"] = file(`<h2>Site crumb</h2>`)
	c.RebuildAll()

	pub := receive(t, ch)
	assert.True(t, pub.Rebuilt)
	require.Len(t, pub.Changes, 1)
	assert.Equal(t, crumbKey, pub.Changes[0].Key)
	assert.Equal(t, siteNC, pub.Changes[0].New.Path)
	assert.Equal(t, domain.ChangeIntroduced, pub.Changes[0].Type(), "a new override is classified as in an incremental batch")
	assert.Empty(t, pub.Contexts)
	assert.Equal(t, uint64(2), c.BatchCount())

	delete(files, "site/Partials/Nav/Crumb.html")
	c.RebuildAll()

	pub = receive(t, ch)
	require.Len(t, pub.Changes, 1)
	assert.Equal(t, domain.ChangeChanged, pub.Changes[0].Type(), "the vendor fallback was a known candidate")
}

func TestParents(t *testing.T) {
	c := started(t, baseFiles())

	sites, err := c.Parents(ctxMain, crumb)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, page, sites[0].From)
	assert.Equal(t, ctxMain, sites[0].Context)
	assert.Equal(t, domain.KindPartial, sites[0].Kind)

	sites, err = c.Parents(ctxMain, "Missing")
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestFlatten_Errors(t *testing.T) {
	c := started(t, baseFiles())

	_, err := c.Flatten(domain.EntryPoint{File: "/ws/nope.html", Context: ctxMain})
	require.ErrorContains(t, err, domain.ErrFileNotIndexed.Error())

	_, err = c.Flatten(domain.EntryPoint{File: page, Context: domain.NewContextID("other", "")})
	require.ErrorContains(t, err, domain.ErrUnknownContext.Error())
}

func TestFlatten_Cycle(t *testing.T) {
	files := baseFiles()
	files["vendor/Partials/A.html"] = file(`<h2>A</h2><f:render partial="B"/>`)
	files["vendor/Partials/B.html"] = file(`<h3>B</h3><f:render partial="A"/>`)
	files["site/Templates/Loop.html"] = file(`<h1>Loop</h1><f:render partial="A"/>`)
	c := started(t, files)

	res, err := c.Flatten(domain.EntryPoint{File: "/ws/site/Templates/Loop.html", Context: ctxMain})
	require.NoError(t, err)
	assert.True(t, res.HasCycle)
	assert.Equal(t, []string{"Loop", "A", "B"}, headings(t, res))

	diags := res.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, domain.DiagnosticCycle, diags[0].Diagnostic)
	assert.Equal(t, "A", diags[0].Text)
}

func TestFlattenText(t *testing.T) {
	c := started(t, baseFiles())
	ep := domain.EntryPoint{File: page, Context: ctxMain}
	draft := []byte(`<h1>Draft</h1><f:render partial="Nav/Crumb"/>`)

	res, err := c.FlattenText(ep, draft)
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft", "Vendor crumb"}, headings(t, res))

	again, err := c.FlattenText(ep, draft)
	require.NoError(t, err)
	assert.Same(t, res, again)

	saved, err := c.Flatten(ep)
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Vendor crumb"}, headings(t, saved))

	_, err = c.FlattenText(domain.EntryPoint{File: page, Context: domain.NewContextID("other", "")}, draft)
	require.ErrorContains(t, err, domain.ErrUnknownContext.Error())
}

func TestSubscribe_DropsWhenFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().BatchCompleted(gomock.Any(), gomock.Any()).AnyTimes()
	m.EXPECT().ResolutionChanged(gomock.Any()).AnyTimes()
	m.EXPECT().FlattenEvicted(gomock.Any()).AnyTimes()
	m.EXPECT().PublicationDropped().Times(1)

	c := newCoordinator(t, baseFiles(), newWorkspace(), func(d *coordinator.Deps) { d.Metrics = m })
	ch, cancel := c.Subscribe(1)

	c.Start()
	c.RebuildAll()

	pub := receive(t, ch)
	assert.Equal(t, uint64(1), pub.Batch)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}

func TestClose_RejectsEvents(t *testing.T) {
	c := started(t, baseFiles())
	ch, _ := c.Subscribe(1)

	c.Close()

	err := c.Submit(domain.FileEvent{Op: domain.FileModified, Path: page})
	require.ErrorIs(t, err, domain.ErrCoordinatorStopped)

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := c.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", coordinator.StateIdle.String())
	assert.Equal(t, "collecting", coordinator.StateCollecting.String())
	assert.Equal(t, "computing", coordinator.StateComputing.String())
	assert.Equal(t, "publishing", coordinator.StatePublishing.String())
}

func legacyWorkspace(withLegacy bool) *domain.Workspace {
	ws := newWorkspace()
	ws.Ignore = []string{"legacy/**"}
	if withLegacy {
		ws.Contexts = []domain.ContextConfig{{ID: ctxMain, Fragments: []domain.ConfigFragment{
			{Context: ctxMain, Kind: domain.KindPartial, Paths: []string{"vendor/Partials", "legacy/Partials", "site/Partials"}},
			{Context: ctxMain, Kind: domain.KindTemplate, Paths: []string{"site/Templates"}, Order: 1},
		}}}
	}
	return ws
}

func callers(t *testing.T, c *coordinator.Coordinator, name domain.LogicalName) []string {
	t.Helper()
	sites, err := c.Parents(ctxMain, name)
	require.NoError(t, err)
	var out []string
	for _, s := range sites {
		out = append(out, s.From)
	}
	return out
}

func TestBatch_ConfigAddedRootIsIndexed(t *testing.T) {
	const legacyNC = "/ws/legacy/Partials/Nav/Crumb.html"
	files := baseFiles()
	files["legacy/Partials/Nav/Crumb.html"] = file(`<h2>Legacy</h2><f:render partial="Footer"/>`)

	c := newCoordinator(t, files, legacyWorkspace(false))
	c.Start()
	assert.NotContains(t, c.Files(), legacyNC)

	require.NoError(t, c.Submit(domain.ConfigEvent{Workspace: legacyWorkspace(true)}))
	c.Flush()

	assert.Contains(t, c.Files(), legacyNC)
	assert.Equal(t, []string{legacyNC, "/ws/site/Templates/Other.html"}, callers(t, c, "Footer"))

	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, legacyNC, impl.Path)

	res, err := c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Legacy", "Footer"}, headings(t, res))

	files["site/Partials/Footer.html"] = file(`<h2>Site footer</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: "/ws/site/Partials/Footer.html"}))
	c.Flush()

	res, err = c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Legacy", "Site footer"}, headings(t, res))

	incremental := callers(t, c, "Footer")
	c.RebuildAll()
	assert.Equal(t, callers(t, c, "Footer"), incremental, "incremental index matches a rebuild")
}

func TestBatch_ConfigDroppedRootIsForgotten(t *testing.T) {
	const legacyNC = "/ws/legacy/Partials/Nav/Crumb.html"
	files := baseFiles()
	files["legacy/Partials/Nav/Crumb.html"] = file(`<h2>Legacy</h2><f:render partial="Footer"/>`)

	c := newCoordinator(t, files, legacyWorkspace(true))
	c.Start()
	require.Contains(t, c.Files(), legacyNC)

	require.NoError(t, c.Submit(domain.ConfigEvent{Workspace: legacyWorkspace(false)}))
	c.Flush()

	assert.NotContains(t, c.Files(), legacyNC)
	assert.Equal(t, []string{"/ws/site/Templates/Other.html"}, callers(t, c, "Footer"))

	impl, ok := c.Resolve(crumbKey)
	require.True(t, ok)
	assert.Equal(t, vendorNC, impl.Path)

	res, err := c.Flatten(domain.EntryPoint{File: page, Context: ctxMain})
	require.NoError(t, err)
	assert.Equal(t, []string{"Page", "Vendor crumb"}, headings(t, res))
}

func TestBatch_EvictsEntriesOfFilesFromOtherContexts(t *testing.T) {
	const entry = "/ws/other/Templates/X.html"
	ctxOther := domain.NewContextID("other", "")

	files := baseFiles()
	files["other/Templates/X.html"] = file(`<h1>X</h1><f:render partial="Nav/Crumb"/>`)

	ws := newWorkspace()
	ws.Contexts = append(ws.Contexts, domain.ContextConfig{ID: ctxOther, Fragments: []domain.ConfigFragment{
		{Context: ctxOther, Kind: domain.KindPartial, Paths: []string{"vendor/Partials"}},
		{Context: ctxOther, Kind: domain.KindTemplate, Paths: []string{"other/Templates"}, Order: 1},
	}})
	c := newCoordinator(t, files, ws)
	c.Start()

	ep := domain.EntryPoint{File: entry, Context: ctxMain}
	res, err := c.Flatten(ep)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Vendor crumb"}, headings(t, res))

	files["site/Partials/Nav/Crumb.html"] = file(`<h2>Site crumb</h2>`)
	require.NoError(t, c.Submit(domain.FileEvent{Op: domain.FileAdded, Path: siteNC}))
	c.Flush()

	next, err := c.Flatten(ep)
	require.NoError(t, err)
	assert.NotSame(t, res, next)
	assert.Equal(t, []string{"X", "Site crumb"}, headings(t, next))
}
