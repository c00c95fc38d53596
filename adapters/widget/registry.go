// Package widget tracks DataTables bindings of rendered tables and produces
// the init snippet the page runs for each binding.
package widget

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"disputelens/internal"
	"disputelens/ports"
)

// Binding is one live table enhancement
type Binding struct {
	ElementID string
	Options   ports.TableOptions
	Script    string
}

// Registry implements ports.TableWidget. At most one binding exists per
// element; binding again destroys the previous one first.
type Registry struct {
	mu       sync.Mutex
	bindings map[string]*Binding
	destroys int
	logger   *internal.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *internal.Logger) *Registry {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Registry{
		bindings: make(map[string]*Binding),
		logger:   logger.With("TableWidget"),
	}
}

// Bind replaces any binding on elementID with a new one.
func (r *Registry) Bind(elementID string, opts ports.TableOptions) error {
	if elementID == "" {
		return fmt.Errorf("table element id is required")
	}

	script, err := InitScript(elementID, opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[elementID]; ok {
		delete(r.bindings, elementID)
		r.destroys++
		r.logger.Trace("destroyed previous binding on #%s", elementID)
	}
	r.bindings[elementID] = &Binding{ElementID: elementID, Options: opts, Script: script}
	return nil
}

// Bindings reports how many live bindings the element has.
func (r *Registry) Bindings(elementID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[elementID]; ok {
		return 1
	}
	return 0
}

// Destroyed reports how many bindings were torn down by rebinding.
func (r *Registry) Destroyed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroys
}

// Binding returns the live binding of an element.
func (r *Registry) Binding(elementID string) (*Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[elementID]
	if !ok {
		return nil, false
	}
	copied := *b
	return &copied, true
}

// InitScript returns the DataTables initialisation for an element. A page
// size of -1 is labelled "All".
func InitScript(elementID string, opts ports.TableOptions) (string, error) {
	labels := make([]interface{}, len(opts.PageSizes))
	for i, size := range opts.PageSizes {
		if size < 0 {
			labels[i] = "All"
		} else {
			labels[i] = size
		}
	}

	config := map[string]interface{}{
		"destroy":    true,
		"pageLength": opts.PageLength,
		"lengthMenu": []interface{}{opts.PageSizes, labels},
		"responsive": opts.Responsive,
	}
	encoded, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encode table options: %w", err)
	}
	return "$(" + strconv.Quote("#"+elementID) + ").DataTable(" + string(encoded) + ");", nil
}
