package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kind is the upload format a schema applies to.
type Kind string

const (
	KindArchive  Kind = "dwca"
	KindTemplate Kind = "xlsx"
)

// ErrUnknownSchema is returned when no schema is registered under a key.
var ErrUnknownSchema = errors.New("unknown schema")

// Definition is a registered schema.
type Definition struct {
	Key      string
	Label    string
	Kind     Kind
	Document *Document
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

func init() {
	Register(FromDocument(DarwinCore()))
}

// FromDocument builds a definition keyed by the document's name. Documents
// without a kind are treated as XLSX templates.
func FromDocument(doc *Document) Definition {
	kind := doc.Kind
	if kind == "" {
		kind = KindTemplate
	}
	return Definition{
		Key:      doc.Name,
		Label:    doc.Label,
		Kind:     kind,
		Document: doc,
	}
}

// Register adds a schema definition to the registry.
// Panics if the definition is invalid or the key is already registered.
func Register(def Definition) {
	if err := Add(def); err != nil {
		panic(err)
	}
}

// Add adds a schema definition to the registry.
func Add(def Definition) error {
	if def.Key == "" || def.Document == nil {
		return fmt.Errorf("schema definition needs a key and a document")
	}
	if def.Kind != KindArchive && def.Kind != KindTemplate {
		return fmt.Errorf("schema %s: unsupported kind %q", def.Key, def.Kind)
	}
	if err := def.Document.Check(); err != nil {
		return fmt.Errorf("schema %s: %w", def.Key, err)
	}
	if def.Label == "" {
		def.Label = def.Key
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		return fmt.Errorf("schema already registered: %s", def.Key)
	}
	registry[def.Key] = def
	return nil
}

// Get returns a schema definition by key.
func Get(key string) (Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownSchema, key)
	}
	return def, nil
}

// All returns every registered schema, sorted by key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Count returns the number of registered schemas.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Definition)
}
