// Package templates serves reusable plan skeletons: a built-in
// catalog plus JSON files loaded from a directory, instantiated with
// per-request parameters.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/talgya/cropplan/internal/plan"
)

// Template is one catalog entry.
type Template struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Plan        *plan.APIPlan `json:"plan"`
}

// Params customizes an instantiation.
type Params struct {
	NumDays   int    `json:"num_days,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

// Catalog is the loaded template set. Instantiations are cached by
// (template, params) since rendering re-marshals the whole plan.
type Catalog struct {
	templates map[string]*Template
	order     []string
	rendered  *cache.Cache
}

// Load builds the catalog from the built-ins plus any *.json files in
// dir (empty dir skips the scan).
func Load(dir string) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[string]*Template),
		rendered:  cache.New(10*time.Minute, 30*time.Minute),
	}
	for _, t := range builtins() {
		c.add(t)
	}
	if dir == "" {
		return c, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", e.Name(), err)
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(e.Name(), ".json")
		}
		c.add(&t)
	}
	return c, nil
}

func (c *Catalog) add(t *Template) {
	if _, ok := c.templates[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.templates[t.ID] = t
}

// List returns catalog summaries in stable order.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.order))
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	for _, id := range ids {
		t := c.templates[id]
		out = append(out, Template{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return out
}

// Get returns one template with its full plan, or nil.
func (c *Catalog) Get(id string) *Template {
	return c.templates[id]
}

// Instantiate renders a template into a standalone plan with the
// given overrides applied.
func (c *Catalog) Instantiate(id string, params Params) (*plan.APIPlan, error) {
	t := c.templates[id]
	if t == nil {
		return nil, fmt.Errorf("unknown template %q", id)
	}

	key := fmt.Sprintf("%s|%d|%s", id, params.NumDays, params.StartDate)
	if v, ok := c.rendered.Get(key); ok {
		return clonePlan(v.(*plan.APIPlan))
	}

	p, err := clonePlan(t.Plan)
	if err != nil {
		return nil, err
	}
	if params.NumDays > 0 {
		p.Horizon.NumDays = params.NumDays
	}
	if params.StartDate != "" {
		p.Horizon.StartDate = params.StartDate
	}
	c.rendered.Set(key, p, cache.DefaultExpiration)
	return clonePlan(p)
}

// clonePlan deep-copies through JSON so callers can mutate freely.
func clonePlan(p *plan.APIPlan) (*plan.APIPlan, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("clone plan: %w", err)
	}
	var out plan.APIPlan
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone plan: %w", err)
	}
	return &out, nil
}
