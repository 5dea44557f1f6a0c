package intake

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownSource is returned when the caller names a source the registry
// does not carry.
var ErrUnknownSource = errors.New("unknown intake source")

// Registry maps source identifiers to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// DefaultRegistry carries all four supported partner sources.
func DefaultRegistry() *Registry {
	return NewRegistry(
		PortalAdapter{},
		ClinicAdapter{},
		PharmaLinkAdapter{},
		NordicAdapter{},
	)
}

// registryFile is the on-disk shape of the source registry configuration.
type registryFile struct {
	Sources map[string]bool `yaml:"sources"`
}

// LoadRegistryFile builds a registry from a YAML file listing which sources
// are enabled, e.g.:
//
//	sources:
//	  portal: true
//	  nordic: false
//
// Sources absent from the file are disabled.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source registry %s: %w", path, err)
	}

	var cfg registryFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse source registry %s: %w", path, err)
	}

	all := DefaultRegistry()
	enabled := []Adapter{}
	for source, on := range cfg.Sources {
		if !on {
			continue
		}
		a, ok := all.adapters[source]
		if !ok {
			return nil, fmt.Errorf("source registry %s: %w: %s", path, ErrUnknownSource, source)
		}
		enabled = append(enabled, a)
	}
	return NewRegistry(enabled...), nil
}

// Get returns the adapter registered for source.
func (r *Registry) Get(source string) (Adapter, bool) {
	a, ok := r.adapters[source]
	return a, ok
}

// Sources lists the registered source identifiers in stable order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Process selects the adapter for source and runs the shared
// parse → transform → validate sequence on raw.
func (r *Registry) Process(source string, raw []byte) (*CanonicalOrder, error) {
	a, ok := r.Get(source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return Process(a, raw)
}
