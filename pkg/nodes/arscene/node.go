// Package arscene provides the AR flow terminal. It anchors UPDL objects to a
// marker and renders the result as an AR.js page.
package arscene

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/nodes/updl"
	"github.com/dukex/updlflow/pkg/protocol"
)

// MarkerType selects how AR.js tracks the marker.
type MarkerType string

const (
	MarkerPreset  MarkerType = "preset"
	MarkerPattern MarkerType = "pattern"
	MarkerBarcode MarkerType = "barcode"
)

// Marker is the anchor the scene is attached to.
type Marker struct {
	Type  MarkerType `json:"type"`
	Value string     `json:"value"`
}

// Scene is the terminal result of an AR flow.
type Scene struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Marker  Marker         `json:"marker"`
	Objects []*updl.Object `json:"objects"`
	Lights  []*updl.Light  `json:"lights"`
	HTML    string         `json:"html,omitempty"`
}

type config struct {
	Name        string     `json:"name"`
	MarkerType  MarkerType `json:"markerType"`
	MarkerValue string     `json:"markerValue"`
	RenderHTML  *bool      `json:"renderHtml"`
}

var page = template.Must(template.New("ar").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Name }}</title>
<script src="https://aframe.io/releases/1.6.0/aframe.min.js"></script>
<script src="https://raw.githack.com/AR-js-org/AR.js/master/aframe/build/aframe-ar.js"></script>
</head>
<body style="margin: 0; overflow: hidden;">
<a-scene embedded arjs="sourceType: webcam; debugUIEnabled: false;" vr-mode-ui="enabled: false">
{{- with .Marker }}
{{- if eq .Type "preset" }}
<a-marker preset="{{ .Value }}">
{{- else if eq .Type "barcode" }}
<a-marker type="barcode" value="{{ .Value }}">
{{- else }}
<a-marker type="pattern" url="{{ .Value }}">
{{- end }}
{{- end }}
{{- range .Lights }}
<a-light type="{{ .Type }}" color="{{ .Color }}" intensity="{{ .Intensity }}" position="{{ .Position }}"></a-light>
{{- end }}
{{- range .Objects }}
{{- if eq .Type "text" }}
<a-text value="{{ .Text }}" color="{{ .Color }}" position="{{ .Position }}" rotation="{{ .Rotation }}" scale="{{ .Scale }}"></a-text>
{{- else if eq .Type "sphere" }}
<a-sphere color="{{ .Color }}" position="{{ .Position }}" rotation="{{ .Rotation }}" scale="{{ .Scale }}"></a-sphere>
{{- else if eq .Type "cylinder" }}
<a-cylinder color="{{ .Color }}" position="{{ .Position }}" rotation="{{ .Rotation }}" scale="{{ .Scale }}"></a-cylinder>
{{- else if eq .Type "plane" }}
<a-plane color="{{ .Color }}" position="{{ .Position }}" rotation="{{ .Rotation }}" scale="{{ .Scale }}"></a-plane>
{{- else }}
<a-box color="{{ .Color }}" position="{{ .Position }}" rotation="{{ .Rotation }}" scale="{{ .Scale }}"></a-box>
{{- end }}
{{- end }}
</a-marker>
<a-entity camera></a-entity>
</a-scene>
</body>
</html>
`))

var primitives = map[string]bool{"box": true, "sphere": true, "cylinder": true, "plane": true, "text": true}

// ARSceneNode builds an AR scene from the connected UPDL objects.
type ARSceneNode struct{}

func (n *ARSceneNode) build(data *models.NodeData) (*Scene, bool, error) {
	inputs := updl.Compact(data.Inputs)

	var cfg config
	if err := models.DecodeInputs(inputs, &cfg); err != nil {
		return nil, false, err
	}

	objects, err := updl.DecodeScene(inputs)
	if err != nil {
		return nil, false, err
	}

	marker := Marker{Type: cfg.MarkerType, Value: cfg.MarkerValue}
	if marker.Type == "" {
		marker.Type = MarkerPreset
	}

	switch marker.Type {
	case MarkerPreset:
		if marker.Value == "" {
			marker.Value = "hiro"
		}
	case MarkerPattern, MarkerBarcode:
		if marker.Value == "" {
			return nil, false, fmt.Errorf("marker type '%s' requires a markerValue", marker.Type)
		}
	default:
		return nil, false, fmt.Errorf("invalid marker type '%s' (must be preset, pattern, or barcode)", marker.Type)
	}

	for _, obj := range objects.Objects {
		if !primitives[obj.Type] {
			return nil, false, fmt.Errorf("object '%s' has unsupported type '%s'", obj.ID, obj.Type)
		}
	}

	name := cfg.Name
	if name == "" {
		name = data.ID
	}

	return &Scene{
		ID:      data.ID,
		Name:    name,
		Marker:  marker,
		Objects: objects.Objects,
		Lights:  objects.Lights,
	}, cfg.RenderHTML == nil || *cfg.RenderHTML, nil
}

// Init returns the scene without rendering it.
func (n *ARSceneNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	scene, _, err := n.build(data)

	return scene, err
}

// Run returns the scene, rendered to HTML unless renderHtml is false.
func (n *ARSceneNode) Run(ctx context.Context, data *models.NodeData, _ string, opts *protocol.Options) (any, error) {
	scene, render, err := n.build(data)
	if err != nil {
		return nil, err
	}

	if len(scene.Objects) == 0 {
		return nil, errors.New("AR scene has no objects")
	}

	if render {
		var sb strings.Builder
		if err := page.Execute(&sb, scene); err != nil {
			return nil, fmt.Errorf("failed to render AR scene: %w", err)
		}

		scene.HTML = sb.String()
	}

	opts.Log().DebugContext(ctx, "AR scene assembled", "marker", scene.Marker.Type, "objects", len(scene.Objects))

	return scene, nil
}
