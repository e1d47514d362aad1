package updl

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

type nodeFactory struct {
	id          string
	name        string
	description string
	schema      *models.JSONSchema
	create      func() protocol.Node
}

func (f *nodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return f.create(), nil
}

func (f *nodeFactory) ID() string {
	return f.id
}

func (f *nodeFactory) Name() string {
	return f.name
}

func (f *nodeFactory) Description() string {
	return f.description
}

func (f *nodeFactory) Category() models.Category {
	return models.CategoryUPDL
}

func (f *nodeFactory) Schema() *models.JSONSchema {
	return f.schema
}

func vectorProperty(description string) *models.Property {
	return &models.Property{
		Type:        "object",
		Description: description,
		Properties: map[string]*models.Property{
			"x": {Type: "number"},
			"y": {Type: "number"},
			"z": {Type: "number"},
		},
	}
}

func NewObjectNodeFactory() protocol.NodeFactory {
	return &nodeFactory{
		id:          "updlObject",
		name:        "UPDL Object",
		description: "A 3D primitive placed in the scene",
		create:      func() protocol.Node { return &ObjectNode{} },
		schema: &models.JSONSchema{
			Type:  "object",
			Title: "UPDL Object",
			Properties: map[string]*models.Property{
				"name":     {Type: "string"},
				"type":     {Type: "string", Enum: []any{"box", "sphere", "cylinder", "plane", "text"}, Default: "box"},
				"color":    {Type: "string", Default: "#4CC3D9"},
				"text":     {Type: "string"},
				"position": vectorProperty("Position in meters"),
				"rotation": vectorProperty("Rotation in degrees"),
				"scale":    vectorProperty("Scale factors"),
			},
		},
	}
}

func NewCameraNodeFactory() protocol.NodeFactory {
	return &nodeFactory{
		id:          "updlCamera",
		name:        "UPDL Camera",
		description: "A camera looking into the scene",
		create:      func() protocol.Node { return &CameraNode{} },
		schema: &models.JSONSchema{
			Type:  "object",
			Title: "UPDL Camera",
			Properties: map[string]*models.Property{
				"name":     {Type: "string"},
				"type":     {Type: "string", Enum: []any{"perspective", "orthographic"}, Default: "perspective"},
				"fov":      {Type: "number", Minimum: ptr(1), Maximum: ptr(179)},
				"position": vectorProperty("Camera position"),
				"lookAt":   vectorProperty("Point the camera looks at"),
			},
		},
	}
}

func NewLightNodeFactory() protocol.NodeFactory {
	return &nodeFactory{
		id:          "updlLight",
		name:        "UPDL Light",
		description: "A light source",
		create:      func() protocol.Node { return &LightNode{} },
		schema: &models.JSONSchema{
			Type:  "object",
			Title: "UPDL Light",
			Properties: map[string]*models.Property{
				"name":      {Type: "string"},
				"type":      {Type: "string", Enum: []any{"ambient", "directional", "point", "spot"}, Default: "ambient"},
				"color":     {Type: "string", Default: "#FFFFFF"},
				"intensity": {Type: "number", Minimum: ptr(0)},
				"position":  vectorProperty("Light position"),
			},
		},
	}
}

// NewSceneNodeFactory creates the UPDL flow terminal.
func NewSceneNodeFactory() protocol.NodeFactory {
	return &nodeFactory{
		id:          "scene",
		name:        "Scene",
		description: "Collects objects, cameras and lights into a platform neutral scene",
		create:      func() protocol.Node { return &SceneNode{} },
		schema: &models.JSONSchema{
			Type:  "object",
			Title: "Scene",
			Properties: map[string]*models.Property{
				"name":    {Type: "string"},
				"objects": {Description: "Connected updlObject nodes"},
				"cameras": {Description: "Connected updlCamera nodes"},
				"lights":  {Description: "Connected updlLight nodes"},
			},
		},
	}
}

func ptr(f float64) *float64 {
	return &f
}
