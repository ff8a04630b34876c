package engine

import (
	"errors"
	"slices"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

type harness struct {
	e     *Engine
	svc   *fakeService
	d     *queueDispatcher
	clock *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{svc: newFakeService(), d: &queueDispatcher{}, clock: &fakeClock{}}
	h.e = New(schema.NewBuiltinRegistry(), h.svc, h.d, Options{
		Width:     800,
		Height:    600,
		AfterFunc: h.clock.AfterFunc,
	})
	return h
}

func (h *harness) clicks(pts ...geometry.Position) {
	for _, p := range pts {
		h.e.PointerDown(p)
		h.e.PointerUp(p)
		h.e.Click(p)
	}
	h.d.flush()
}

func (h *harness) drag(from, to geometry.Position) {
	h.e.PointerDown(from)
	h.e.PointerMove(to)
	h.e.PointerUp(to)
	h.e.Click(to)
	h.d.flush()
}

func (h *harness) line(t *testing.T, a, b geometry.Position) {
	t.Helper()
	if err := h.e.SelectTool("line-dda"); err != nil {
		t.Fatal(err)
	}
	h.clicks(a, b)
}

func TestDrawLine(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(50, 60))

	if got := h.svc.Calls(); !slices.Equal(got, []string{"push_back Line", "get_all"}) {
		t.Fatalf("calls = %v", got)
	}
	prims := h.e.Primitives()
	if len(prims) != 1 {
		t.Fatalf("cached %d primitives", len(prims))
	}
	p1, _ := prims[0].Param("p1")
	if pos, _ := p1.Position(); pos != geometry.Pos(10, 10) {
		t.Errorf("p1 = %+v", pos)
	}
	if o := h.e.Overlay(); len(o.Pending) != 0 || o.Mode != ModeDraw {
		t.Errorf("overlay after commit = %+v", o)
	}
}

func TestDrawPolygonClosesNearStart(t *testing.T) {
	h := newHarness(t)
	if err := h.e.SelectTool("polygon"); err != nil {
		t.Fatal(err)
	}
	h.clicks(geometry.Pos(0, 0), geometry.Pos(10, 0), geometry.Pos(10, 10), geometry.Pos(1, 1))

	prims := h.e.Primitives()
	if len(prims) != 1 {
		t.Fatalf("cached %d primitives", len(prims))
	}
	pts, _ := prims[0].Params[0].Positions()
	want := []geometry.Position{geometry.Pos(0, 0), geometry.Pos(10, 0), geometry.Pos(10, 10)}
	if !slices.Equal(pts, want) {
		t.Errorf("points = %v, want %v", pts, want)
	}
}

func TestDrawCircleByDrag(t *testing.T) {
	h := newHarness(t)
	if err := h.e.SelectTool("circle-drag"); err != nil {
		t.Fatal(err)
	}
	h.drag(geometry.Pos(13, 4), geometry.Pos(10, 0))

	prims := h.e.Primitives()
	if len(prims) != 1 || prims[0].Variant != "center_radius" {
		t.Fatalf("primitives = %+v", prims)
	}
	r, _ := prims[0].Param("radius")
	if string(r.Value) != "5" {
		t.Errorf("radius = %s, want 5", r.Value)
	}
}

func TestToolSwitchDropsPendingPoints(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("polygon")
	h.clicks(geometry.Pos(1, 1), geometry.Pos(50, 1))
	if n := len(h.e.Overlay().Pending); n != 2 {
		t.Fatalf("pending = %d", n)
	}
	_ = h.e.SelectTool("line-dda")
	if n := len(h.e.Overlay().Pending); n != 0 {
		t.Errorf("pending after tool switch = %d", n)
	}
	if err := h.e.SelectTool("nope"); !errors.Is(err, schema.ErrUnknownSchema) {
		t.Errorf("SelectTool(nope) error = %v", err)
	}
}

func TestExplicitCommitTooEarly(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("polygon")
	h.clicks(geometry.Pos(1, 1), geometry.Pos(50, 1))

	err := h.e.Commit()
	var short *schema.InsufficientPointsError
	if !errors.As(err, &short) || short.Need != 3 {
		t.Fatalf("Commit() error = %v", err)
	}
	if n := len(h.e.Overlay().Pending); n != 2 {
		t.Errorf("pending after failed commit = %d, want 2", n)
	}

	h.clicks(geometry.Pos(50, 50))
	if err := h.e.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	h.d.flush()
	if len(h.e.Primitives()) != 1 {
		t.Error("explicit commit did not create the polygon")
	}
}

func TestSingleTranslateFollowsPrimitive(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	if err := h.e.Select(0, false); err != nil {
		t.Fatal(err)
	}
	if h.e.Mode() != ModeSelect {
		t.Fatalf("mode = %s", h.e.Mode())
	}
	h.svc.resetCalls()

	h.drag(geometry.Pos(30, 70), geometry.Pos(45, 80))

	if got := h.svc.Calls(); !slices.Equal(got, []string{"insert 0 Translate", "get_all"}) {
		t.Fatalf("calls = %v", got)
	}
	if got := h.e.Selection(); !slices.Equal(got, []int{1}) {
		t.Errorf("selection = %v, want [1]", got)
	}
	if h.svc.endpointAt(1) != "Line" {
		t.Errorf("record 1 is %s", h.svc.endpointAt(1))
	}
	if len(h.e.Overlay().Pending) != 0 {
		t.Error("the click after the drag reached the collector")
	}
}

func TestBatchScaleDescending(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(20, 20))
	h.clicks(geometry.Pos(100, 100), geometry.Pos(110, 110))
	h.clicks(geometry.Pos(30, 30), geometry.Pos(40, 40))

	_ = h.e.Select(0, false)
	_ = h.e.Select(2, true)
	if got := h.e.Selection(); !slices.Equal(got, []int{0, 2}) {
		t.Fatalf("selection = %v", got)
	}
	set := h.e.Overlay().Handles
	if set == nil || set.Centroid != geometry.Pos(25, 25) {
		t.Fatalf("handles = %+v", set)
	}
	h.svc.resetCalls()

	// bottom-right corner of the shadow bounds
	h.drag(geometry.Pos(50, 50), geometry.Pos(75, 50))

	want := []string{"insert 2 Scale", "insert 0 Scale", "get_all"}
	if got := h.svc.Calls(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if got := h.e.Selection(); !slices.Equal(got, []int{1, 4}) {
		t.Errorf("selection = %v, want [1 4]", got)
	}
	for _, i := range []int{1, 4} {
		if h.svc.endpointAt(i) != "Line" {
			t.Errorf("record %d is %s", i, h.svc.endpointAt(i))
		}
	}
}

func TestNoRequestForIdentityTransform(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	_ = h.e.Select(0, false)
	h.svc.resetCalls()

	h.drag(geometry.Pos(30, 70), geometry.Pos(30, 70))
	if got := h.svc.Calls(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
}

func TestFailedInsertSurfacesNotice(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	_ = h.e.Select(0, false)
	h.svc.resetCalls()
	h.svc.fail["insert"] = errors.New("boom")

	h.drag(geometry.Pos(30, 70), geometry.Pos(60, 70))

	if got := h.svc.Calls(); !slices.Equal(got, []string{"insert 0 Translate", "get_all"}) {
		t.Fatalf("calls = %v, want one attempt and a refresh", got)
	}
	o := h.e.Overlay()
	if o.Notice == nil || o.Notice.Op != "insert" {
		t.Fatalf("notice = %+v", o.Notice)
	}
	if o.Preview != nil || o.Busy {
		t.Errorf("gesture state left behind: %+v", o)
	}
	if got := h.e.Selection(); !slices.Equal(got, []int{0}) {
		t.Errorf("selection = %v", got)
	}

	h.e.DismissNotice()
	if h.e.Overlay().Notice != nil {
		t.Error("DismissNotice() kept the notice")
	}
}

func TestStaleSelectionClearedSilently(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	h.e.ClearTool()
	_ = h.e.Select(0, false)

	h.svc.records = nil
	h.e.Refresh()
	h.d.flush()

	o := h.e.Overlay()
	if len(o.Selection) != 0 || o.Handles != nil {
		t.Errorf("selection survived: %+v", o.Selection)
	}
	if o.Notice != nil {
		t.Errorf("stale selection raised a notice: %+v", o.Notice)
	}
	if o.Mode != ModeIdle {
		t.Errorf("mode = %s", o.Mode)
	}
}

func TestKnotDragModifies(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("bspline")
	h.e.SetInput("knots", []float64{0, 0, 0, 0.5, 1, 1, 1})
	h.clicks(geometry.Pos(10, 10), geometry.Pos(50, 40), geometry.Pos(90, 10), geometry.Pos(90, 60), geometry.Pos(12, 12))
	if len(h.e.Primitives()) != 1 {
		t.Fatalf("cached %d primitives", len(h.e.Primitives()))
	}

	_ = h.e.Select(0, false)
	h.svc.resetCalls()
	// knot 3 sits mid-row, 30 above the top edge of bounds [0,100]
	h.drag(geometry.Pos(50, -30), geometry.Pos(25, -30))

	if got := h.svc.Calls(); !slices.Equal(got, []string{"modify 0", "get_all"}) {
		t.Fatalf("calls = %v", got)
	}
	knots := h.e.Primitives()[0].Knots()
	if !slices.Equal(knots, []float64{0, 0, 0, 0.25, 1, 1, 1}) {
		t.Errorf("knots = %v", knots)
	}
	if got := h.e.Selection(); !slices.Equal(got, []int{0}) {
		t.Errorf("selection = %v", got)
	}
}

func TestBadKnotInputRaisesNotice(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("bspline")
	h.e.SetInput("knots", []float64{1, 0})
	h.clicks(geometry.Pos(10, 10), geometry.Pos(50, 40), geometry.Pos(90, 10), geometry.Pos(11, 11))

	if len(h.svc.Calls()) != 0 {
		t.Errorf("calls = %v", h.svc.Calls())
	}
	if n := h.e.Overlay().Notice; n == nil {
		t.Error("no notice for a bad knot vector")
	}
}

func TestVertexDragModifies(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	_ = h.e.Select(0, false)
	h.svc.resetCalls()

	h.drag(geometry.Pos(90, 90), geometry.Pos(70, 95))

	if got := h.svc.Calls(); !slices.Equal(got, []string{"modify 0", "get_all"}) {
		t.Fatalf("calls = %v", got)
	}
	p2, _ := h.e.Primitives()[0].Param("p2")
	if pos, _ := p2.Position(); pos != geometry.Pos(70, 95) {
		t.Errorf("p2 = %+v", pos)
	}
}

func TestPivotDragMovesScaleCenter(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(90, 90))
	_ = h.e.Select(0, false)
	h.svc.resetCalls()

	h.drag(geometry.Pos(50, 50), geometry.Pos(10, 10))
	if len(h.svc.Calls()) != 0 {
		t.Fatalf("pivot move sent %v", h.svc.Calls())
	}
	if c := h.e.Overlay().Handles.Centroid; c != geometry.Pos(10, 10) {
		t.Fatalf("pivot = %+v", c)
	}

	// rotate handle at (50,-10); swing it a quarter turn about (10,10)
	h.drag(geometry.Pos(50, -10), geometry.Pos(30, 50))
	calls := h.svc.Calls()
	if len(calls) == 0 || calls[0] != "insert 0 Rotate" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestRemoveDescending(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(20, 20))
	h.clicks(geometry.Pos(100, 100), geometry.Pos(110, 110))
	h.clicks(geometry.Pos(30, 30), geometry.Pos(40, 40))
	_ = h.e.Select(0, false)
	_ = h.e.Select(2, true)
	h.svc.resetCalls()

	h.e.Remove()
	h.d.flush()

	if got := h.svc.Calls(); !slices.Equal(got, []string{"remove 2", "remove 0", "get_all"}) {
		t.Fatalf("calls = %v", got)
	}
	if len(h.e.Primitives()) != 1 || len(h.e.Selection()) != 0 {
		t.Errorf("after remove: %d primitives, selection %v", len(h.e.Primitives()), h.e.Selection())
	}
	if h.e.Mode() != ModeDraw {
		t.Errorf("mode = %s, want draw with the tool still armed", h.e.Mode())
	}
}

func TestSelectToggle(t *testing.T) {
	h := newHarness(t)
	h.line(t, geometry.Pos(10, 10), geometry.Pos(20, 20))
	h.clicks(geometry.Pos(100, 100), geometry.Pos(110, 110))

	_ = h.e.Select(1, true)
	_ = h.e.Select(0, true)
	if got := h.e.Selection(); !slices.Equal(got, []int{0, 1}) {
		t.Fatalf("selection = %v", got)
	}
	_ = h.e.Select(1, true)
	if got := h.e.Selection(); !slices.Equal(got, []int{0}) {
		t.Errorf("selection = %v", got)
	}
	if err := h.e.Select(9, false); !errors.Is(err, ErrUnknownPrimitive) {
		t.Errorf("Select(9) error = %v", err)
	}
}

func TestSingleCircleHasNoHandles(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("circle-click")
	h.clicks(geometry.Pos(13, 4), geometry.Pos(10, 0))
	_ = h.e.Select(0, false)

	if o := h.e.Overlay(); o.Handles != nil {
		t.Errorf("circle got handles: %+v", o.Handles)
	}
	// a gesture cannot start without handles
	h.svc.resetCalls()
	h.drag(geometry.Pos(10, 0), geometry.Pos(40, 40))
	if len(h.svc.Calls()) != 0 {
		t.Errorf("calls = %v", h.svc.Calls())
	}
}

func TestClipDrawAndDrag(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("line-dda")
	h.e.SetClipEnabled(true)
	h.d.flush()

	h.e.BeginClipDraw()
	h.clicks(geometry.Pos(10, 10), geometry.Pos(100, 100))
	if h.e.Mode() != ModeDraw {
		t.Fatalf("mode after clip draw = %s", h.e.Mode())
	}
	if len(h.svc.options) != 2 {
		t.Fatalf("published %d options, want 2", len(h.svc.options))
	}

	h.e.PointerDown(geometry.Pos(100, 100))
	h.e.PointerMove(geometry.Pos(-20, 50))
	h.d.flush()
	if len(h.svc.options) != 2 {
		t.Fatalf("published before the debounce: %d", len(h.svc.options))
	}
	h.e.PointerUp(geometry.Pos(-20, 50))
	h.e.Click(geometry.Pos(-20, 50))
	h.d.flush()

	if len(h.svc.options) != 3 {
		t.Fatalf("published %d options, want 3", len(h.svc.options))
	}
	last := h.svc.options[2].Clip
	if !last.Enable || last.Window.Rectangle == nil {
		t.Fatalf("clip = %+v", last)
	}
	if r := *last.Window.Rectangle; r.TopLeft != geometry.Pos(0, 10) || r.BottomRight != geometry.Pos(10, 50) {
		t.Errorf("rect = %+v", r)
	}
	if n := len(h.e.Overlay().Pending); n != 0 {
		t.Errorf("click after clip drag added %d pending points", n)
	}

	h.clock.fireAll()
	h.d.flush()
	if len(h.svc.options) != 3 {
		t.Errorf("stale debounce published again")
	}
}

func TestFailureDuringClipDragKeepsServerInSync(t *testing.T) {
	h := newHarness(t)
	h.e.SetClipEnabled(true)
	h.e.BeginClipDraw()
	h.clicks(geometry.Pos(10, 10), geometry.Pos(100, 100))
	published := len(h.svc.options)

	h.svc.fail["get_all"] = errors.New("boom")
	h.e.Refresh()
	h.e.PointerDown(geometry.Pos(100, 100))
	h.e.PointerMove(geometry.Pos(150, 120))
	h.d.flush()

	if h.e.Overlay().Notice == nil {
		t.Fatal("failed refresh raised no notice")
	}
	if h.e.Overlay().Clip.Dragging {
		t.Error("clip drag survived the failure")
	}
	if len(h.svc.options) != published+1 {
		t.Fatalf("published %d options after the failure, want %d", len(h.svc.options), published+1)
	}
	last := h.svc.options[len(h.svc.options)-1].Clip
	if last.Window.Rectangle == nil || *last.Window.Rectangle != h.e.Overlay().Clip.Region.Rect {
		t.Errorf("server window = %+v, local region = %+v", last.Window, h.e.Overlay().Clip.Region)
	}
	if got := last.Window.Rectangle.BottomRight; got != geometry.Pos(150, 120) {
		t.Errorf("bottom-right = %+v, want the dragged corner", got)
	}

	h.clock.fireAll()
	h.d.flush()
	if len(h.svc.options) != published+1 {
		t.Error("stale debounce published again")
	}
}

func TestClipSettings(t *testing.T) {
	h := newHarness(t)
	if err := h.e.SetClipShape("polygon"); err != nil {
		t.Fatal(err)
	}
	if err := h.e.SetClipShape("hexagon"); err == nil {
		t.Error("SetClipShape(hexagon) accepted")
	}
	if err := h.e.SetClipAlgorithm(1); err != nil {
		t.Fatal(err)
	}
	if err := h.e.SetClipAlgorithm(3); err == nil {
		t.Error("SetClipAlgorithm(3) accepted")
	}
	h.d.flush()

	h.e.BeginClipDraw()
	// a double click arrives as two clicks and a dblclick
	h.clicks(geometry.Pos(10, 10), geometry.Pos(200, 10), geometry.Pos(100, 150), geometry.Pos(100, 150))
	h.e.DoubleClick(geometry.Pos(100, 150))
	h.d.flush()

	o := h.e.Overlay()
	if len(o.Clip.Region.Polygon) != 3 {
		t.Fatalf("polygon = %v", o.Clip.Region.Polygon)
	}
	if o.Mode != ModeIdle {
		t.Errorf("mode = %s", o.Mode)
	}
	last := h.svc.options[len(h.svc.options)-1].Clip
	if last.Window.Polygon == nil || last.Algorithm != 1 {
		t.Errorf("clip = %+v", last)
	}
}

func TestBootstrapOnce(t *testing.T) {
	h := newHarness(t)
	h.e.Bootstrap()
	h.e.Bootstrap()
	h.d.flush()

	want := []string{"create 800x600", "set_global_options", "get_all"}
	if got := h.svc.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestContextMenuPops(t *testing.T) {
	h := newHarness(t)
	_ = h.e.SelectTool("polygon")
	h.clicks(geometry.Pos(1, 1), geometry.Pos(50, 1), geometry.Pos(50, 50))
	h.e.ContextMenu(geometry.Pos(0, 0))
	if got := h.e.Overlay().Pending; len(got) != 2 || got[1] != geometry.Pos(50, 1) {
		t.Errorf("pending = %v", got)
	}
}
