// Package registry holds the compiled-once table of component types,
// their prop schemas, and their defaults. It replaces a reflection-driven
// approach: every component type's fields are declared as plain data here
// at construction time, and validation walks that data description rather
// than inspecting Go struct tags through reflection.
package registry

import (
	"sort"

	"github.com/nextslide/deckengine/pkg/models"
)

// FieldKind is the primitive shape a prop's value must take.
type FieldKind string

// Field kinds.
const (
	FieldString  FieldKind = "string"
	FieldNumber  FieldKind = "number"
	FieldBoolean FieldKind = "boolean"
	FieldColor   FieldKind = "color"
	FieldEnum    FieldKind = "enum"
	FieldArray   FieldKind = "array"
	FieldObject  FieldKind = "object"
)

// FieldSchema describes one prop a component type accepts.
type FieldSchema struct {
	Name       string
	Kind       FieldKind
	Required   bool
	Default    any
	EnumValues []string // only meaningful when Kind == FieldEnum
}

// ComponentSchema is the full prop schema for one component type.
type ComponentSchema struct {
	Type   models.ComponentType
	Fields []FieldSchema
}

// FieldByName returns the field schema with the given name, if declared.
func (s ComponentSchema) FieldByName(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Registry is the compiled, read-only table of component type schemas.
// It is built once at construction and never mutated afterward, so it is
// safe to share across every concurrent slide generation.
type Registry struct {
	schemas map[models.ComponentType]ComponentSchema
}

// New builds the default registry covering every built-in component type.
func New() *Registry {
	r := &Registry{schemas: make(map[models.ComponentType]ComponentSchema)}
	for _, s := range builtinSchemas() {
		r.schemas[s.Type] = s
	}
	return r
}

// Schema returns the declared schema for a component type.
func (r *Registry) Schema(t models.ComponentType) (ComponentSchema, bool) {
	s, ok := r.schemas[t]
	return s, ok
}

// Types returns every registered component type, sorted for deterministic
// iteration (e.g. when listing supported types in an API response).
func (r *Registry) Types() []models.ComponentType {
	types := make([]models.ComponentType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ApplyDefaults fills in any prop the component's schema declares a
// default for and that the component did not already set. Unknown
// components (no schema) are left untouched.
func (r *Registry) ApplyDefaults(c *models.Component) {
	schema, ok := r.schemas[c.Type]
	if !ok {
		return
	}
	if c.Props == nil {
		c.Props = make(map[string]any)
	}
	for _, f := range schema.Fields {
		if f.Default == nil {
			continue
		}
		if _, set := c.Props[f.Name]; !set {
			c.Props[f.Name] = f.Default
		}
	}
}

func builtinSchemas() []ComponentSchema {
	return []ComponentSchema{
		{Type: models.ComponentBackground, Fields: []FieldSchema{
			{Name: "color", Kind: FieldColor, Default: "#ffffff"},
			{Name: "imageUrl", Kind: FieldString},
		}},
		{Type: models.ComponentTitle, Fields: []FieldSchema{
			{Name: "text", Kind: FieldString, Required: true},
			{Name: "fontSize", Kind: FieldNumber, Default: float64(72)},
			{Name: "align", Kind: FieldEnum, Default: "left", EnumValues: []string{"left", "center", "right"}},
			{Name: "color", Kind: FieldColor},
		}},
		{Type: models.ComponentHeading, Fields: []FieldSchema{
			{Name: "text", Kind: FieldString, Required: true},
			{Name: "fontSize", Kind: FieldNumber, Default: float64(40)},
			{Name: "align", Kind: FieldEnum, Default: "left", EnumValues: []string{"left", "center", "right"}},
			{Name: "color", Kind: FieldColor},
		}},
		{Type: models.ComponentTextBlock, Fields: []FieldSchema{
			{Name: "text", Kind: FieldString, Required: true},
			{Name: "fontSize", Kind: FieldNumber, Default: float64(24)},
			{Name: "align", Kind: FieldEnum, Default: "left", EnumValues: []string{"left", "center", "right"}},
			{Name: "color", Kind: FieldColor},
		}},
		{Type: models.ComponentTiptapTextBlock, Fields: []FieldSchema{
			{Name: "text", Kind: FieldString, Required: true},
			{Name: "html", Kind: FieldString},
			{Name: "fontSize", Kind: FieldNumber, Default: float64(24)},
		}},
		{Type: models.ComponentImage, Fields: []FieldSchema{
			// url is intentionally not Required: an Image component may reach
			// Validate before image search has assigned it a candidate, and
			// gets filled in by a later pipeline step rather than here.
			{Name: "url", Kind: FieldString, Default: ""},
			{Name: "alt", Kind: FieldString, Default: ""},
			{Name: "fit", Kind: FieldEnum, Default: "cover", EnumValues: []string{"cover", "contain", "fill"}},
		}},
		{Type: models.ComponentShape, Fields: []FieldSchema{
			{Name: "shapeType", Kind: FieldEnum, Required: true, EnumValues: []string{"rectangle", "ellipse", "line"}},
			{Name: "fill", Kind: FieldColor, Default: "#000000"},
			{Name: "strokeWidth", Kind: FieldNumber, Default: float64(0)},
		}},
		{Type: models.ComponentChart, Fields: []FieldSchema{
			{Name: "chartType", Kind: FieldEnum, Required: true, EnumValues: []string{"bar", "line", "pie"}},
			{Name: "series", Kind: FieldArray, Required: true},
		}},
		{Type: models.ComponentTable, Fields: []FieldSchema{
			{Name: "columns", Kind: FieldArray, Required: true},
			{Name: "rows", Kind: FieldArray, Required: true},
		}},
		{Type: models.ComponentIcon, Fields: []FieldSchema{
			{Name: "iconName", Kind: FieldString, Required: true},
			{Name: "color", Kind: FieldColor, Default: "#000000"},
		}},
	}
}
