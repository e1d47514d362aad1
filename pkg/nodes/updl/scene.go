// Package updl provides the nodes of the universal platform description
// language: objects, cameras and lights collected into a platform neutral scene.
package updl

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/dukex/updlflow/pkg/models"
)

// Vector3 is a position, rotation or scale in scene space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) String() string {
	return fmt.Sprintf("%g %g %g", v.X, v.Y, v.Z)
}

// Object is a renderable primitive.
type Object struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Color    string  `json:"color"`
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
	Scale    Vector3 `json:"scale"`
	Text     string  `json:"text,omitempty"`
}

// Camera is a viewpoint into the scene.
type Camera struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	FOV      float64 `json:"fov"`
	Position Vector3 `json:"position"`
	LookAt   Vector3 `json:"lookAt"`
}

// Light illuminates the scene.
type Light struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Color     string  `json:"color"`
	Intensity float64 `json:"intensity"`
	Position  Vector3 `json:"position"`
}

// Scene is the terminal result of a UPDL flow.
type Scene struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Objects []*Object `json:"objects"`
	Cameras []*Camera `json:"cameras"`
	Lights  []*Light  `json:"lights"`
}

// Config is the resolved configuration of a scene node.
type Config struct {
	Name    string    `json:"name"`
	Objects []*Object `json:"objects"`
	Cameras []*Camera `json:"cameras"`
	Lights  []*Light  `json:"lights"`
}

// ListInputs are the scene inputs that accept several connections.
var ListInputs = []string{"objects", "cameras", "lights"}

// DecodeScene decodes scene style inputs. A single connected element is
// accepted where a list is expected; empty strings are dropped.
func DecodeScene(inputs map[string]any) (*Config, error) {
	normalized := Compact(inputs)

	for _, key := range ListInputs {
		normalized[key] = asList(inputs[key])
	}

	var cfg Config
	if err := models.DecodeInputs(normalized, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Compact copies inputs without the empty strings left by unresolved references.
func Compact(inputs map[string]any) map[string]any {
	out := make(map[string]any, len(inputs))

	for k, v := range inputs {
		if s, ok := v.(string); ok && s == "" {
			continue
		}

		out[k] = v
	}

	return out
}

func asList(v any) []any {
	if v == nil {
		return []any{}
	}

	if s, ok := v.(string); ok {
		if s == "" {
			return []any{}
		}

		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return asList(decoded)
		}

		return []any{}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}

	out := make([]any, 0, rv.Len())

	for i := range rv.Len() {
		item := rv.Index(i).Interface()
		if s, ok := item.(string); ok && s == "" {
			continue
		}

		out = append(out, item)
	}

	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
