package render

import (
	"github.com/coreman2200/ledmatrix/internal/layout"
	"github.com/coreman2200/ledmatrix/internal/panel"
	"github.com/coreman2200/ledmatrix/internal/pixel"
)

// Renderer draws one pattern into dst, which is indexed by LED index.
// dst keeps the previous frame, so a renderer may build on it or overwrite it.
type Renderer interface {
	Pattern() panel.Pattern
	Render(dst []pixel.Color, l layout.Layout, f *panel.Frame)
}

// Registry dispatches a pattern id to its renderer.
type Registry struct{ m []Renderer }

func NewRegistry() *Registry {
	return &Registry{m: make([]Renderer, len(panel.Patterns()))}
}

func (r *Registry) Register(rr Renderer) {
	if rr == nil || !rr.Pattern().Valid() {
		return
	}
	r.m[rr.Pattern()] = rr
}

func (r *Registry) Get(p panel.Pattern) (Renderer, bool) {
	if !p.Valid() || r.m[p] == nil {
		return nil, false
	}
	return r.m[p], true
}

// List returns the registered patterns in id order.
func (r *Registry) List() []panel.Pattern {
	out := make([]panel.Pattern, 0, len(r.m))
	for _, rr := range r.m {
		if rr != nil {
			out = append(out, rr.Pattern())
		}
	}
	return out
}
