package router

import (
	"cmp"
	"slices"
	"sync"

	"github.com/gin-gonic/gin"
)

// Modules implement APIModule, AdminModule or both.
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// prioritizer orders mounting, lower first. Modules without it get 100.
type prioritizer interface{ Priority() int }

// Registry collects route modules before an engine is built. A nil *Registry mounts nothing.
type Registry struct {
	mu   sync.Mutex
	mods []any
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register keeps mod if it implements at least one surface and reports whether it did.
func (r *Registry) Register(mod any) bool {
	_, api := mod.(APIModule)
	_, admin := mod.(AdminModule)
	if !api && !admin {
		return false
	}
	r.mu.Lock()
	r.mods = append(r.mods, mod)
	r.mu.Unlock()
	return true
}

func (r *Registry) sorted() []any {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	mods := slices.Clone(r.mods)
	r.mu.Unlock()
	slices.SortStableFunc(mods, func(a, b any) int { return cmp.Compare(priorityOf(a), priorityOf(b)) })
	return mods
}

// MountAPI mounts the API modules on g, usually /api/v1.
func (r *Registry) MountAPI(g *gin.RouterGroup) {
	for _, m := range r.sorted() {
		if am, ok := m.(APIModule); ok {
			am.MountAPI(g)
		}
	}
}

// MountAdmin mounts the admin modules on g, usually /admin/v1.
func (r *Registry) MountAdmin(g *gin.RouterGroup) {
	for _, m := range r.sorted() {
		if am, ok := m.(AdminModule); ok {
			am.MountAdmin(g)
		}
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
