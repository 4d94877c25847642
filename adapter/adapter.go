// Package adapter maps raw root names to canonical names and holds the
// per-entity-type detection and extraction rules the transform stage consults.
// An Adapter carries no bulk data: configuration is long-lived, set once at
// startup and occasionally updated. Mutation of the tables must be serialized
// by the caller; concurrent reads are safe once configuration has settled.
package adapter

import (
	"fmt"

	"github.com/c360/jsonindex/detect"
	"github.com/c360/jsonindex/errors"
)

// Rules decides entity-ness and extracts IDs for one registered entity type.
// Implementations must be pure functions of the entity content so extraction
// stays stable across repeated calls.
type Rules interface {
	// Detect reports whether an array belongs to this entity type. It is
	// given the full array and may sample as it sees fit.
	Detect(items []any) bool

	// ExtractID returns the identity of one entity. A nil ID or an error
	// causes the element to be skipped, never the batch to fail.
	ExtractID(entity map[string]any) (any, error)
}

// PropertyRules is the default Rules implementation synthesized from a single
// ID property name: detection checks the first sampled item for the property,
// extraction reads it.
type PropertyRules struct {
	Property string
}

// Detect reports whether the first element carries the configured property
func (r PropertyRules) Detect(items []any) bool {
	if len(items) == 0 {
		return false
	}
	obj, ok := items[0].(map[string]any)
	if !ok {
		return false
	}
	_, present := obj[r.Property]
	return present
}

// ExtractID reads the configured property
func (r PropertyRules) ExtractID(entity map[string]any) (any, error) {
	v, present := entity[r.Property]
	if !present || v == nil {
		return nil, errors.WrapInvalid(errors.ErrNoEntityID, "PropertyRules", "ExtractID",
			fmt.Sprintf("property %q missing", r.Property))
	}
	return v, nil
}

// TypeConfig configures one entity type. Either IDProperty or Rules must be
// set; when only IDProperty is given, PropertyRules is synthesized.
type TypeConfig struct {
	IDProperty string
	Rules      Rules
}

// Detection reports how an array was classified.
type Detection struct {
	// IsEntity is true when the array should be restructured.
	IsEntity bool

	// EntityType names the registered type that matched, empty when the
	// generic heuristics decided.
	EntityType string

	// IDProperty is the ID property to read per element: the registered
	// type's configured property, or the one the generic heuristic chose.
	// Empty when extraction must go through rules or generic per-entity
	// extraction.
	IDProperty string
}

type entityType struct {
	name       string
	idProperty string
	rules      Rules
}

// Adapter holds root-name aliases and entity-type rules.
type Adapter struct {
	aliases    map[string]string
	types      []*entityType
	byName     map[string]*entityType
	rootTypes  map[string]string
	autoDetect bool
}

// New creates an adapter with auto-detection enabled
func New() *Adapter {
	return &Adapter{
		aliases:    make(map[string]string),
		byName:     make(map[string]*entityType),
		rootTypes:  make(map[string]string),
		autoDetect: true,
	}
}

// SetAutoDetect enables or disables the generic heuristic fallback
func (a *Adapter) SetAutoDetect(enabled bool) {
	a.autoDetect = enabled
}

// RegisterRootAlias maps a raw root name to a canonical one. Many raw names
// may resolve to one canonical root.
func (a *Adapter) RegisterRootAlias(raw, canonical string) error {
	if raw == "" || canonical == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Adapter", "RegisterRootAlias",
			"alias names cannot be empty")
	}
	a.aliases[raw] = canonical
	return nil
}

// MapRootName returns the registered alias for a name, or the name unchanged.
// Pure function of registered state.
func (a *Adapter) MapRootName(name string) string {
	if canonical, ok := a.aliases[name]; ok {
		return canonical
	}
	return name
}

// RegisterEntityType registers rules for a logical entity type. Registering
// an existing name replaces its rules but keeps its position in the match
// order.
func (a *Adapter) RegisterEntityType(name string, cfg TypeConfig) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Adapter", "RegisterEntityType",
			"entity type name cannot be empty")
	}

	rules := cfg.Rules
	if rules == nil {
		if cfg.IDProperty == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Adapter", "RegisterEntityType",
				fmt.Sprintf("entity type %q needs an id property or rules", name))
		}
		rules = PropertyRules{Property: cfg.IDProperty}
	}

	if existing, ok := a.byName[name]; ok {
		existing.idProperty = cfg.IDProperty
		existing.rules = rules
		return nil
	}

	et := &entityType{name: name, idProperty: cfg.IDProperty, rules: rules}
	a.types = append(a.types, et)
	a.byName[name] = et
	return nil
}

// BindRoot pins a canonical root name to a registered entity type so its
// rules are consulted before the general registration-order scan.
func (a *Adapter) BindRoot(rootName, typeName string) error {
	if _, ok := a.byName[typeName]; !ok {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Adapter", "BindRoot",
			fmt.Sprintf("entity type %q not registered", typeName))
	}
	a.rootTypes[rootName] = typeName
	return nil
}

// DetectEntityArray classifies an array under a canonical root name:
// root-bound type first, then registered types in registration order (first
// match wins), then the generic heuristics when auto-detection is enabled.
// A detector that panics counts as "did not match".
func (a *Adapter) DetectEntityArray(rootName string, items []any) Detection {
	if typeName, ok := a.rootTypes[rootName]; ok {
		et := a.byName[typeName]
		if safeDetect(et.rules, items) {
			return Detection{IsEntity: true, EntityType: et.name, IDProperty: et.idProperty}
		}
	}

	for _, et := range a.types {
		if safeDetect(et.rules, items) {
			return Detection{IsEntity: true, EntityType: et.name, IDProperty: et.idProperty}
		}
	}

	if a.autoDetect {
		res := detect.EntityArray(items)
		if res.IsEntity {
			return Detection{IsEntity: true, IDProperty: res.IDProperty}
		}
	}

	return Detection{}
}

// ExtractEntityID produces the identity of one entity. With a known entity
// type its rules are used; otherwise the generic heuristics apply. A nil
// result or error means the element carries no extractable identity and is
// skipped by the caller. An extractor that panics degrades to "no ID".
func (a *Adapter) ExtractEntityID(entityType string, entity map[string]any) (any, error) {
	if entityType != "" {
		if et, ok := a.byName[entityType]; ok {
			id, err := safeExtract(et.rules, entity)
			if err != nil {
				return nil, err
			}
			if id == nil {
				return nil, errors.WrapInvalid(errors.ErrNoEntityID, "Adapter", "ExtractEntityID",
					fmt.Sprintf("nil id for entity type %q", entityType))
			}
			return id, nil
		}
	}

	id, ok := detect.ExtractID(entity)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrNoEntityID, "Adapter", "ExtractEntityID",
			"generic extraction failed")
	}
	return id, nil
}

// safeDetect runs a detector, treating a panic as "not entity"
func safeDetect(rules Rules, items []any) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return rules.Detect(items)
}

// safeExtract runs an extractor, treating a panic as "no ID"
func safeExtract(rules Rules, entity map[string]any) (id any, err error) {
	defer func() {
		if r := recover(); r != nil {
			id = nil
			err = errors.WrapInvalid(errors.ErrNoEntityID, "Adapter", "ExtractEntityID",
				fmt.Sprintf("extractor panic: %v", r))
		}
	}()
	return rules.ExtractID(entity)
}
