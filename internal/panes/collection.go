// Package panes implements the Pane Collection aggregate (spec component
// C5): a keyed set of Pane aggregates with ordinal sort and role
// assignment. Queries return a freshly built slice, so callers never see
// the live map itself, but its elements are the collection's own *pane.Pane
// pointers, not copies.
package panes

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tettuan/tmux-monitor/internal/classify"
	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/paneid"
)

// Collection is a mapping from PaneId to Pane aggregates.
type Collection struct {
	mu    sync.RWMutex
	panes map[string]*pane.Pane
}

// New returns an empty Collection.
func New() *Collection {
	return &Collection{panes: make(map[string]*pane.Pane)}
}

// Add inserts p. Fails with IllegalState on a duplicate id.
func (c *Collection) Add(p *pane.Pane) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := p.ID().String()
	if _, exists := c.panes[key]; exists {
		return errkind.New(errkind.IllegalState, fmt.Sprintf("pane %s already present in collection", key))
	}
	c.panes[key] = p
	return nil
}

// Remove deletes the pane with the given id, if present.
func (c *Collection) Remove(id paneid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.panes, id.String())
}

// Get returns the pane with the given id, or nil if not present.
func (c *Collection) Get(id paneid.ID) *pane.Pane {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.panes[id.String()]
}

// All returns every pane in undefined order.
func (c *Collection) All() []*pane.Pane {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*pane.Pane, 0, len(c.panes))
	for _, p := range c.panes {
		out = append(out, p)
	}
	return out
}

// AllSortedByNumericID returns every pane ordered by numeric pane id.
func (c *Collection) AllSortedByNumericID() []*pane.Pane {
	all := c.All()
	sort.Slice(all, func(i, j int) bool {
		return paneid.Less(all[i].ID(), all[j].ID())
	})
	return all
}

// ByStatus returns every pane whose WorkerStatus kind matches kind.
func (c *Collection) ByStatus(kind classify.WorkerStatusKind) []*pane.Pane {
	var out []*pane.Pane
	for _, p := range c.AllSortedByNumericID() {
		if p.Status().Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Active returns the single pane whose IsActive is true, or nil if none
// (or, defensively, the first one found if tmux ever reports more than
// one — that should never happen but must not panic).
func (c *Collection) Active() *pane.Pane {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.panes {
		if p.IsActive() {
			return p
		}
	}
	return nil
}

// ReplaceAll atomically swaps the entire pane set, used at discovery.
func (c *Collection) ReplaceAll(newPanes []*pane.Pane) {
	m := make(map[string]*pane.Pane, len(newPanes))
	for _, p := range newPanes {
		m[p.ID().String()] = p
	}
	c.mu.Lock()
	c.panes = m
	c.mu.Unlock()
}

// Len returns the number of panes currently held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.panes)
}

// AssignRoleResult summarizes an AssignRoles pass.
type AssignRoleResult struct {
	Assigned int
	Skipped  int
}

// AssignRoles implements spec §4.5's ordered role assignment: panes are
// sorted by numeric id, and template[i] (or the workerK overflow name) is
// assigned to position i. A pane that rejects its role (already assigned
// a different one) is skipped and counted, but the operation as a whole
// still succeeds — partial success is allowed.
func (c *Collection) AssignRoles() AssignRoleResult {
	sorted := c.AllSortedByNumericID()
	result := AssignRoleResult{}
	for i, p := range sorted {
		role := paneid.AssignRole(i)
		if err := p.AssignRole(role); err != nil {
			result.Skipped++
			continue
		}
		result.Assigned++
	}
	return result
}
