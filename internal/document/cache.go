package document

import (
	"log/slog"
	"slices"

	"github.com/inamate/inamate/canvas-go/internal/schema"
)

// Cache holds the last primitive list fetched from the render service. The
// server copy is authoritative; the cache is replaced wholesale on refresh.
type Cache struct {
	reg   *schema.Registry
	prims []Primitive
}

func NewCache(reg *schema.Registry) *Cache {
	return &Cache{reg: reg}
}

// Load replaces the cache with the decoded records. Malformed records are
// skipped with a warning; indices always follow server order.
func (c *Cache) Load(raws []Raw) {
	prims := make([]Primitive, 0, len(raws))
	for i, raw := range raws {
		p, err := Decode(c.reg, i, raw)
		if err != nil {
			slog.Warn("skipping primitive record", "index", i, "error", err)
			continue
		}
		prims = append(prims, p)
	}
	c.prims = prims
}

func (c *Cache) Len() int { return len(c.prims) }

// At returns the primitive at server index i.
func (c *Cache) At(i int) (*Primitive, bool) {
	for k := range c.prims {
		if c.prims[k].Index == i {
			return &c.prims[k], true
		}
	}
	return nil, false
}

// All returns a copy of the cached list.
func (c *Cache) All() []Primitive {
	return slices.Clone(c.prims)
}
