package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/namespace"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// Entry is the type-erased view of a dataset used by generic handlers.
type Entry interface {
	Name() namespace.Dataset
	Loaded() bool
	MarshalValue() ([]byte, error)
	ReplaceJSON(raw []byte) error
	Validate(raw []byte) error
	Reset()
	load(ctx context.Context, user string) error
}

// Workspace is one user's set of eight datasets sharing a persister.
type Workspace struct {
	CompanyInfo *Dataset[model.CompanyInfo]
	Clients     *Dataset[[]model.Client]
	WorkItems   *Dataset[[]model.WorkItem]
	Invoices    *Dataset[[]model.Invoice]
	Estimates   *Dataset[[]model.Estimate]
	Units       *Dataset[[]string]
	Categories  *Dataset[[]string]
	StampImage  *Dataset[*string]

	persister *Persister
	entries   map[namespace.Dataset]Entry

	mu   sync.RWMutex
	user string
}

// NewWorkspace wires every dataset to store through a fresh persister.
func NewWorkspace(store Store, opts Options) *Workspace {
	p := NewPersister(store)
	w := &Workspace{
		persister: p,
		CompanyInfo: newDataset(spec[model.CompanyInfo]{
			name:     namespace.CompanyInfo,
			defaults: DefaultCompanyInfo,
		}, store, p, opts),
		Clients: newDataset(spec[[]model.Client]{
			name:     namespace.Clients,
			defaults: func(string) []model.Client { return []model.Client{} },
			empty:    emptySlice[model.Client],
			validate: validateClients,
		}, store, p, opts),
		WorkItems: newDataset(spec[[]model.WorkItem]{
			name:     namespace.WorkItems,
			defaults: func(string) []model.WorkItem { return []model.WorkItem{} },
			empty:    emptySlice[model.WorkItem],
			validate: validateWorkItems,
		}, store, p, opts),
		Invoices: newDataset(spec[[]model.Invoice]{
			name:     namespace.Invoices,
			defaults: func(string) []model.Invoice { return []model.Invoice{} },
			empty:    emptySlice[model.Invoice],
			validate: validateInvoices,
		}, store, p, opts),
		Estimates: newDataset(spec[[]model.Estimate]{
			name:     namespace.Estimates,
			defaults: func(string) []model.Estimate { return []model.Estimate{} },
			empty:    emptySlice[model.Estimate],
			validate: validateEstimates,
		}, store, p, opts),
		Units: newDataset(spec[[]string]{
			name:     namespace.Units,
			defaults: func(string) []string { return append([]string(nil), BaseUnits...) },
			empty:    emptySlice[string],
			backfill: func(v []string) []string { return WithBase(BaseUnits, v) },
		}, store, p, opts),
		Categories: newDataset(spec[[]string]{
			name:     namespace.Categories,
			defaults: func(string) []string { return append([]string(nil), BaseCategories...) },
			empty:    emptySlice[string],
			backfill: func(v []string) []string { return WithBase(BaseCategories, v) },
		}, store, p, opts),
		StampImage: newDataset(spec[*string]{
			name:     namespace.StampImage,
			defaults: func(string) *string { return nil },
		}, store, p, opts),
	}

	w.entries = map[namespace.Dataset]Entry{
		namespace.CompanyInfo: w.CompanyInfo,
		namespace.Clients:     w.Clients,
		namespace.WorkItems:   w.WorkItems,
		namespace.Invoices:    w.Invoices,
		namespace.Estimates:   w.Estimates,
		namespace.Units:       w.Units,
		namespace.Categories:  w.Categories,
		namespace.StampImage:  w.StampImage,
	}
	return w
}

// OnPersisted registers a callback for completed dataset writes.
func (w *Workspace) OnPersisted(fn func(user string, ds namespace.Dataset)) {
	w.persister.OnPersisted(fn)
}

// Entry returns the dataset with the given name.
func (w *Workspace) Entry(ds namespace.Dataset) (Entry, error) {
	e, ok := w.entries[ds]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, ds)
	}
	return e, nil
}

// Load hydrates every dataset for user, in the fixed dataset order.
// Writes for user start flowing only once each dataset has loaded.
func (w *Workspace) Load(ctx context.Context, user string) error {
	w.mu.Lock()
	w.user = user
	w.mu.Unlock()

	for _, ds := range namespace.All {
		if err := w.entries[ds].load(ctx, user); err != nil {
			return fmt.Errorf("load %s: %w", ds, err)
		}
	}

	logger.Info("Workspace loaded", map[string]interface{}{
		"user":     user,
		"datasets": len(namespace.All),
	})
	return nil
}

// Reset closes the load gate of every dataset, keeping values in memory.
func (w *Workspace) Reset() {
	for _, e := range w.entries {
		e.Reset()
	}
	w.mu.Lock()
	w.user = ""
	w.mu.Unlock()
}

// User returns the user of the last load, or "" after Reset.
func (w *Workspace) User() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user
}

// Loaded reports whether every dataset has completed its load.
func (w *Workspace) Loaded() bool {
	for _, e := range w.entries {
		if !e.Loaded() {
			return false
		}
	}
	return true
}

// Snapshot returns the current values keyed by dataset name.
func (w *Workspace) Snapshot(datasets ...namespace.Dataset) (map[string]json.RawMessage, error) {
	if len(datasets) == 0 {
		datasets = namespace.All
	}
	out := make(map[string]json.RawMessage, len(datasets))
	for _, ds := range datasets {
		e, err := w.Entry(ds)
		if err != nil {
			return nil, err
		}
		raw, err := e.MarshalValue()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ds, err)
		}
		out[string(ds)] = raw
	}
	return out, nil
}

// Flush waits for every scheduled write to reach storage.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.persister.Flush(ctx)
}

// Close drains pending writes and stops the persister.
func (w *Workspace) Close() {
	w.persister.Close()
}
