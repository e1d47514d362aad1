// Package models defines the node graph models consumed by the flow engine.
package models

import (
	"encoding/json"
	"fmt"
)

// Category classifies a node for terminal selection.
type Category string

const (
	CategoryChain   Category = "chain"
	CategoryAgent   Category = "agent"
	CategoryLLM     Category = "llm"
	CategoryPrompt  Category = "prompt"
	CategoryTool    Category = "tool"
	CategoryUtility Category = "utility"
	CategoryAR      Category = "AR"
	CategoryUPDL    Category = "UPDL"
)

var knownCategories = map[Category]bool{
	CategoryChain:   true,
	CategoryAgent:   true,
	CategoryLLM:     true,
	CategoryPrompt:  true,
	CategoryTool:    true,
	CategoryUtility: true,
	CategoryAR:      true,
	CategoryUPDL:    true,
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	return knownCategories[c]
}

// IsTextProducer reports whether a node of this category can end a text flow.
func (c Category) IsTextProducer() bool {
	return c == CategoryChain || c == CategoryAgent || c == CategoryLLM
}

// InputParam declares one configurable input of a node.
type InputParam struct {
	Name     string `json:"name"               yaml:"name"               validate:"required"`
	Label    string `json:"label,omitempty"    yaml:"label,omitempty"`
	Type     string `json:"type,omitempty"     yaml:"type,omitempty"`
	Default  any    `json:"default,omitempty"  yaml:"default,omitempty"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// NodeData is the configuration half of a node.
type NodeData struct {
	ID          string         `json:"id"                    yaml:"id"`
	Name        string         `json:"name"                  yaml:"name"                  validate:"required"`
	Label       string         `json:"label,omitempty"       yaml:"label,omitempty"`
	Category    Category       `json:"category"              yaml:"category"              validate:"required"`
	Inputs      map[string]any `json:"inputs"                yaml:"inputs"`
	InputParams []InputParam   `json:"inputParams,omitempty" yaml:"inputParams,omitempty" validate:"dive"`
	// ExposeAs publishes the node output as a flow variable under this name.
	ExposeAs string `json:"exposeAs,omitempty" yaml:"exposeAs,omitempty"`
	// Outputs is filled after execution and never persisted.
	Outputs map[string]any `json:"outputs,omitempty" yaml:"-"`
}

// Input returns the raw input value stored under name.
func (d *NodeData) Input(name string) (any, bool) {
	if d == nil || d.Inputs == nil {
		return nil, false
	}

	v, ok := d.Inputs[name]

	return v, ok
}

// Param returns the declared input parameter with the given name.
func (d *NodeData) Param(name string) (InputParam, bool) {
	for _, p := range d.InputParams {
		if p.Name == name {
			return p, true
		}
	}

	return InputParam{}, false
}

// Clone returns a deep copy of the node data.
func (d *NodeData) Clone() *NodeData {
	if d == nil {
		return nil
	}

	clone := *d
	clone.Inputs = CloneMap(d.Inputs)
	clone.Outputs = CloneMap(d.Outputs)

	if d.InputParams != nil {
		clone.InputParams = append([]InputParam(nil), d.InputParams...)
	}

	return &clone
}

// Position is the canvas position of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a vertex of a flow graph.
type Node struct {
	ID       string    `json:"id"                 yaml:"id"   validate:"required"`
	Position Position  `json:"position,omitzero"  yaml:"position,omitempty"`
	Data     *NodeData `json:"data"               yaml:"data" validate:"required"`
}

// Name returns the factory name of the node.
func (n *Node) Name() string {
	if n.Data == nil {
		return ""
	}

	return n.Data.Name
}

// Category returns the node category.
func (n *Node) Category() Category {
	if n.Data == nil {
		return ""
	}

	return n.Data.Category
}

// Edge connects the output of Source to an input of Target.
type Edge struct {
	ID           string `json:"id,omitempty"           yaml:"id,omitempty"`
	Source       string `json:"source"                 yaml:"source"                 validate:"required"`
	Target       string `json:"target"                 yaml:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// ExecutedNode is a node together with the output it produced.
type ExecutedNode struct {
	Node   *Node `json:"node"`
	Output any   `json:"output"`
	Depth  int   `json:"depth"`
}

// DecodeInputs decodes a resolved input map into a typed configuration struct.
func DecodeInputs(inputs map[string]any, target any) error {
	raw, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode inputs: %w", err)
	}

	return nil
}

// CloneValue deep copies maps and slices built from JSON-like values.
// Other values are returned as is.
func CloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = CloneValue(item)
		}

		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = CloneValue(item)
		}

		return out
	default:
		return v
	}
}

// CloneMap deep copies a JSON-like map, keeping nil as nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	return CloneValue(m).(map[string]any)
}
