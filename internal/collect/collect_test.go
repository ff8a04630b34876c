package collect

import (
	"errors"
	"slices"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/schema"
)

func pts(xy ...int) []geometry.Position {
	out := make([]geometry.Position, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, geometry.Pos(xy[i], xy[i+1]))
	}
	return out
}

func TestFixedArityClick(t *testing.T) {
	// Line: arity 2, click mode.
	c := New(Protocol{Mode: schema.ModeClick, Arity: 2})

	commits := 0
	var got []geometry.Position
	for _, p := range pts(10, 10, 50, 60) {
		c.PointerDown(p)
		c.PointerUp(p)
		if out := c.Click(p); out.Committed {
			commits++
			got = out.Points
		}
	}

	if commits != 1 {
		t.Fatalf("commits = %d, want 1", commits)
	}
	if !slices.Equal(got, pts(10, 10, 50, 60)) {
		t.Errorf("points = %v", got)
	}
	if c.State() != Idle {
		t.Errorf("state = %v after commit", c.State())
	}
}

func TestMultiPointProximityClose(t *testing.T) {
	// Polygon: arity 3, multi-point.
	c := New(Protocol{Mode: schema.ModeClick, Arity: 3, MultiPoint: true})

	var out Outcome
	for _, p := range pts(0, 0, 10, 0, 10, 10, 1, 1) {
		out = c.Click(p)
		if out.Committed {
			break
		}
	}
	if !out.Committed {
		t.Fatal("gesture did not commit")
	}
	if want := pts(0, 0, 10, 0, 10, 10); !slices.Equal(out.Points, want) {
		t.Errorf("points = %v, want %v", out.Points, want)
	}
}

func TestMultiPointNoEarlyClose(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeClick, Arity: 3, MultiPoint: true})
	c.Click(geometry.Pos(0, 0))
	c.Click(geometry.Pos(20, 0))
	// Near the first point but only two points collected: appended.
	if out := c.Click(geometry.Pos(2, 2)); out.Committed {
		t.Fatal("committed with two points")
	}
	if got := len(c.Pending()); got != 3 {
		t.Errorf("pending = %d, want 3", got)
	}
	// Exactly at the radius is not "within".
	if out := c.Click(geometry.Pos(10, 0)); out.Committed {
		t.Fatal("committed at distance == radius")
	}
}

func TestMultiPointCommitIff(t *testing.T) {
	tests := []struct {
		name       string
		clicks     []geometry.Position
		dblclick   bool
		wantCommit bool
		wantPoints []geometry.Position
	}{
		{"two clicks never commit", pts(0, 0, 50, 0), false, false, nil},
		{"three far clicks do not commit", pts(0, 0, 50, 0, 50, 50), false, false, nil},
		{"double click with four clicks", pts(0, 0, 50, 0, 50, 50, 50, 50), true, true, pts(0, 0, 50, 0, 50, 50)},
		{"double click with three clicks", pts(0, 0, 50, 0, 50, 50), true, false, nil},
		{"close after four", pts(0, 0, 50, 0, 50, 50, 0, 50, 3, 3), false, true, pts(0, 0, 50, 0, 50, 50, 0, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Protocol{Mode: schema.ModeClick, Arity: 3, MultiPoint: true})
			var out Outcome
			for _, p := range tt.clicks {
				if o := c.Click(p); o.Committed {
					out = o
				}
			}
			if tt.dblclick {
				o, _ := c.DoubleClick()
				if o.Committed {
					out = o
				}
			}
			if out.Committed != tt.wantCommit {
				t.Fatalf("committed = %v, want %v", out.Committed, tt.wantCommit)
			}
			if tt.wantCommit && !slices.Equal(out.Points, tt.wantPoints) {
				t.Errorf("points = %v, want %v", out.Points, tt.wantPoints)
			}
		})
	}
}

func TestDoubleClickInsufficient(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeClick, Arity: 3, MultiPoint: true})
	for _, p := range pts(0, 0, 40, 0, 40, 0) {
		c.Click(p)
	}
	_, err := c.DoubleClick()
	var ipe *schema.InsufficientPointsError
	if !errors.As(err, &ipe) {
		t.Fatalf("err = %v, want InsufficientPointsError", err)
	}
	if ipe.Have != 2 || ipe.Need != 3 {
		t.Errorf("err = %+v", ipe)
	}
	// The trimmed gesture continues.
	if got := c.Pending(); !slices.Equal(got, pts(0, 0, 40, 0)) {
		t.Errorf("pending = %v", got)
	}
	if c.State() != Collecting {
		t.Errorf("state = %v", c.State())
	}
}

func TestCommitInsufficientKeepsState(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeClick, Arity: 3, MultiPoint: true})
	c.Click(geometry.Pos(1, 1))
	if _, err := c.Commit(); err == nil {
		t.Fatal("Commit() succeeded with one point")
	}
	if len(c.Pending()) != 1 {
		t.Errorf("pending cleared on failed commit")
	}
}

func TestDragMode(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeDrag, Arity: 2})

	if out := c.Click(geometry.Pos(5, 5)); out.Committed || c.State() != Idle {
		t.Fatal("drag collector reacted to click")
	}
	if out := c.PointerUp(geometry.Pos(5, 5)); out.Committed {
		t.Fatal("pointer up without down committed")
	}

	c.PointerDown(geometry.Pos(10, 20))
	if c.State() != Collecting {
		t.Fatalf("state = %v after pointer down", c.State())
	}
	out := c.PointerUp(geometry.Pos(30, 40))
	if !out.Committed {
		t.Fatal("pointer up did not commit")
	}
	if !slices.Equal(out.Points, pts(10, 20, 30, 40)) {
		t.Errorf("points = %v", out.Points)
	}
}

func TestContextMenuPopsOne(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeClick, Arity: 4, MultiPoint: true})
	for _, p := range pts(0, 0, 1, 1, 2, 2) {
		c.Click(p)
	}
	c.ContextMenu()
	if got := c.Pending(); !slices.Equal(got, pts(0, 0, 1, 1)) {
		t.Errorf("pending = %v", got)
	}
	c.ContextMenu()
	c.ContextMenu()
	c.ContextMenu()
	if c.State() != Idle {
		t.Errorf("state = %v after popping everything", c.State())
	}
}

func TestCancel(t *testing.T) {
	c := New(Protocol{Mode: schema.ModeClick, Arity: 3})
	c.Click(geometry.Pos(1, 2))
	c.Cancel()
	if c.State() != Idle || len(c.Pending()) != 0 {
		t.Errorf("cancel left state %v, %v", c.State(), c.Pending())
	}
}

func TestProtocolFor(t *testing.T) {
	r := schema.NewBuiltinRegistry()
	d, _ := r.Get("polygon")
	p := ProtocolFor(d)
	if p.Mode != schema.ModeClick || p.Arity != 3 || !p.MultiPoint || p.CloseRadius != DefaultCloseRadius {
		t.Errorf("ProtocolFor(polygon) = %+v", p)
	}
}
