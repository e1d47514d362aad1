package updl

import (
	"context"
	"errors"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

var one = Vector3{X: 1, Y: 1, Z: 1}

// ObjectNode builds an Object from its inputs.
type ObjectNode struct{}

func (n *ObjectNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	obj := &Object{Scale: one}
	if err := models.DecodeInputs(Compact(data.Inputs), obj); err != nil {
		return nil, err
	}

	obj.ID = data.ID
	obj.Name = orDefault(obj.Name, data.ID)
	obj.Type = orDefault(obj.Type, "box")
	obj.Color = orDefault(obj.Color, "#4CC3D9")

	if obj.Type == "text" && obj.Text == "" {
		return nil, errors.New("text objects require a 'text' input")
	}

	return obj, nil
}

func (n *ObjectNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	return n.Init(ctx, data, input, opts)
}

// CameraNode builds a Camera from its inputs.
type CameraNode struct{}

func (n *CameraNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	cam := &Camera{FOV: 80, Position: Vector3{Y: 1.6}}
	if err := models.DecodeInputs(Compact(data.Inputs), cam); err != nil {
		return nil, err
	}

	cam.ID = data.ID
	cam.Name = orDefault(cam.Name, data.ID)
	cam.Type = orDefault(cam.Type, "perspective")

	return cam, nil
}

func (n *CameraNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	return n.Init(ctx, data, input, opts)
}

// LightNode builds a Light from its inputs.
type LightNode struct{}

func (n *LightNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	light := &Light{Intensity: 1}
	if err := models.DecodeInputs(Compact(data.Inputs), light); err != nil {
		return nil, err
	}

	light.ID = data.ID
	light.Name = orDefault(light.Name, data.ID)
	light.Type = orDefault(light.Type, "ambient")
	light.Color = orDefault(light.Color, "#FFFFFF")

	return light, nil
}

func (n *LightNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	return n.Init(ctx, data, input, opts)
}

// SceneNode collects connected objects, cameras and lights.
type SceneNode struct{}

func (n *SceneNode) Init(_ context.Context, data *models.NodeData, _ string, _ *protocol.Options) (any, error) {
	cfg, err := DecodeScene(data.Inputs)
	if err != nil {
		return nil, err
	}

	return &Scene{
		ID:      data.ID,
		Name:    orDefault(cfg.Name, data.ID),
		Objects: cfg.Objects,
		Cameras: cfg.Cameras,
		Lights:  cfg.Lights,
	}, nil
}

// Run returns the scene. A scene without objects is rejected.
func (n *SceneNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	out, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	scene := out.(*Scene)
	if len(scene.Objects) == 0 {
		return nil, errors.New("scene has no objects")
	}

	opts.Log().DebugContext(ctx, "Scene assembled",
		"objects", len(scene.Objects), "cameras", len(scene.Cameras), "lights", len(scene.Lights))

	return scene, nil
}
