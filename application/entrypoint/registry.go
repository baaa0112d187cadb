package entrypoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/basm-dev/basm-sdk-go/application/schema"
	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

var (
	// ErrEmptyName is returned when registering a descriptor without a name.
	ErrEmptyName = errors.New("entrypoint: export name is empty")

	// ErrDuplicate is returned when an export name is registered twice.
	ErrDuplicate = errors.New("entrypoint: export already registered")
)

// Registry maps export names to descriptors.
type Registry struct {
	entries map[string]Descriptor
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register adds d under d.Name().
func (r *Registry) Register(d Descriptor) error {
	name := d.Name()
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.entries[name] = d
	return nil
}

// MustRegister is Register for package-level declarations; it panics on error.
func (r *Registry) MustRegister(d Descriptor) Descriptor {
	if err := r.Register(d); err != nil {
		panic(err)
	}
	return d
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[name]
	return d, ok
}

// Names returns the registered export names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest describes every registered function with the JSON schemas of its input and
// secret types.
func (r *Registry) Manifest() (entities.Manifest, error) {
	manifest := entities.Manifest{
		SDKVersion: Version,
		Functions:  []entities.FunctionManifest{},
	}
	for _, name := range r.Names() {
		d, _ := r.Lookup(name)

		inputSchema, err := schema.ForType(d.InputType())
		if err != nil {
			return entities.Manifest{}, fmt.Errorf("input schema for %s: %w", name, err)
		}
		secretSchema, err := schema.ForType(d.SecretType())
		if err != nil {
			return entities.Manifest{}, fmt.Errorf("secret schema for %s: %w", name, err)
		}

		manifest.Functions = append(manifest.Functions, entities.FunctionManifest{
			Name:         name,
			InputSchema:  json.RawMessage(inputSchema),
			SecretSchema: json.RawMessage(secretSchema),
		})
	}
	return manifest, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry Dispatch serves.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds d to the default registry.
func Register(d Descriptor) error {
	return defaultRegistry.Register(d)
}

// MustRegister adds d to the default registry and panics on error.
func MustRegister(d Descriptor) Descriptor {
	return defaultRegistry.MustRegister(d)
}
