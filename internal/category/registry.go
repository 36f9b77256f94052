// Package category implements the registry of spending categories used for
// selection during entry and for display ordering in aggregates.
package category

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/theirongolddev/dolla/internal/config"
	"github.com/theirongolddev/dolla/internal/model"
	"github.com/theirongolddev/dolla/internal/store"
)

// SelectResult reports what a Select call did.
type SelectResult int

const (
	// Selected means the requested category is now active.
	Selected SelectResult = iota
	// CreateRequested means the create-new entry was chosen; the caller
	// should collect a name and call Create. The selection is unchanged.
	CreateRequested
)

// Registry is an ordered set of real categories. The create-new entry is
// never stored; Entries appends it.
type Registry struct {
	cats        []model.Category
	selected    string
	defaultIcon string
	newID       func() string
	log         *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultIcon sets the icon used when Create gets an empty one.
func WithDefaultIcon(icon string) Option {
	return func(r *Registry) { r.defaultIcon = icon }
}

// WithIDFunc overrides id generation for created categories.
func WithIDFunc(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// New builds a registry seeded with defaults, in order. Entries with an
// empty name or a repeated id are skipped.
func New(defaults []config.CategoryConfig, opts ...Option) *Registry {
	r := &Registry{
		defaultIcon: "tag.fill",
		newID:       newID,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "category")
	r.cats = r.seed(defaults)
	return r
}

func (r *Registry) seed(defaults []config.CategoryConfig) []model.Category {
	cats := make([]model.Category, 0, len(defaults))
	seen := make(map[string]struct{}, len(defaults))
	for _, d := range defaults {
		name := normalizeName(d.Name)
		if name == "" {
			continue
		}
		id := d.ID
		if id == "" {
			id = name
		}
		if _, dup := seen[id]; dup || id == model.CreateNewCategoryID {
			continue
		}
		seen[id] = struct{}{}
		icon := d.Icon
		if icon == "" {
			icon = r.defaultIcon
		}
		cats = append(cats, model.Category{Kind: model.CategoryReal, ID: id, Name: name, Icon: icon})
	}
	return cats
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Entries returns every real category in insertion order followed by the
// create-new entry.
func (r *Registry) Entries() []model.Category {
	out := make([]model.Category, 0, len(r.cats)+1)
	out = append(out, r.cats...)
	return append(out, model.CreateNewCategory())
}

// Real returns the real categories in insertion order.
func (r *Registry) Real() []model.Category {
	out := make([]model.Category, len(r.cats))
	copy(out, r.cats)
	return out
}

// Names returns the real category names in display order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.cats))
	for i, c := range r.cats {
		names[i] = c.Name
	}
	return names
}

// First returns the first real category, if any.
func (r *Registry) First() (model.Category, bool) {
	if len(r.cats) == 0 {
		return model.Category{}, false
	}
	return r.cats[0], true
}

// Resolve looks up a real category by id.
func (r *Registry) Resolve(id string) (model.Category, bool) {
	for _, c := range r.cats {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// ByName looks up a real category by name, case-insensitively.
func (r *Registry) ByName(name string) (model.Category, bool) {
	name = normalizeName(name)
	for _, c := range r.cats {
		if c.Name == name {
			return c, true
		}
	}
	return model.Category{}, false
}

// Select makes id the active category. Choosing the create-new entry
// returns CreateRequested and leaves the selection alone.
func (r *Registry) Select(id string) (SelectResult, error) {
	if id == model.CreateNewCategoryID {
		return CreateRequested, nil
	}
	if _, ok := r.Resolve(id); !ok {
		return Selected, model.NewValidationError(model.FieldCategory, model.CodeCategoryUnknown,
			fmt.Sprintf("unknown category %q", id))
	}
	r.selected = id
	return Selected, nil
}

// Selected returns the active category, if one is selected and still exists.
func (r *Registry) Selected() (model.Category, bool) {
	if r.selected == "" {
		return model.Category{}, false
	}
	return r.Resolve(r.selected)
}

// Create adds a category named name after the last real entry and selects
// it. The name is trimmed and lower-cased; an empty name is rejected and
// leaves the registry unchanged. Names need not be unique.
func (r *Registry) Create(name, icon string) (model.Category, error) {
	name = normalizeName(name)
	if name == "" {
		return model.Category{}, model.NewValidationError(model.FieldName, model.CodeNameEmpty,
			"category name is required")
	}
	if icon == "" {
		icon = r.defaultIcon
	}

	id := r.newID()
	for r.has(id) || id == model.CreateNewCategoryID {
		id = newID()
	}

	c := model.Category{Kind: model.CategoryReal, ID: id, Name: name, Icon: icon}
	r.cats = append(r.cats, c)
	r.selected = c.ID
	r.log.Info("category created", "id", c.ID, "name", c.Name)
	return c, nil
}

// Remove deletes the category with the given id. Records that captured
// it keep their snapshot; a form still pointing at it sees a stale id.
func (r *Registry) Remove(id string) bool {
	for i, c := range r.cats {
		if c.ID == id {
			r.cats = append(r.cats[:i], r.cats[i+1:]...)
			if r.selected == id {
				r.selected = ""
			}
			return true
		}
	}
	return false
}

func (r *Registry) has(id string) bool {
	_, ok := r.Resolve(id)
	return ok
}

type storedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Persist writes the real categories to s under key.
func (r *Registry) Persist(ctx context.Context, s store.BlobStore, key string) error {
	out := make([]storedCategory, len(r.cats))
	for i, c := range r.cats {
		out[i] = storedCategory{ID: c.ID, Name: c.Name, Icon: c.Icon}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return &model.PersistenceError{Op: model.OpWrite, Key: key, Err: err}
	}
	if err := s.Put(ctx, key, data); err != nil {
		r.log.Error("category write failed", "error", err)
		return &model.PersistenceError{Op: model.OpWrite, Key: key, Err: err}
	}
	return nil
}

// Restore replaces the registry contents with the categories stored under
// key. A stored empty list empties the registry. When nothing is stored,
// or the blob cannot be read, the seeded categories are kept.
func (r *Registry) Restore(ctx context.Context, s store.BlobStore, key string) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		r.log.Warn("category read failed, keeping defaults", "error", err)
		return
	}
	var stored []storedCategory
	if err := json.Unmarshal(data, &stored); err != nil {
		r.log.Warn("category blob corrupt, keeping defaults", "error", err)
		return
	}
	defaults := make([]config.CategoryConfig, len(stored))
	for i, c := range stored {
		defaults[i] = config.CategoryConfig{ID: c.ID, Name: c.Name, Icon: c.Icon}
	}
	cats := r.seed(defaults)
	if len(cats) == 0 && len(stored) > 0 {
		r.log.Warn("no usable categories stored, keeping defaults", "stored", len(stored))
		return
	}
	// A stored empty list means every category was removed.
	r.cats = cats
	if r.selected != "" && !r.has(r.selected) {
		r.selected = ""
	}
}
