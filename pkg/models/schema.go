package models

// SchemaProvider defines an interface for components that can provide JSON Schema
type SchemaProvider interface {
	Schema() *JSONSchema
}

// JSONSchema represents a JSON Schema for node input validation
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        string               `json:"type,omitempty"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	Maximum     *float64             `json:"maximum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// NodeDescriptor describes a registered node factory.
type NodeDescriptor struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Category    Category    `json:"category"`
	Description string      `json:"description"`
	Schema      *JSONSchema `json:"schema"`
}
