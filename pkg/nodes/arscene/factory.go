package arscene

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

type ARSceneNodeFactory struct{}

func NewARSceneNodeFactory() protocol.NodeFactory {
	return &ARSceneNodeFactory{}
}

func (f *ARSceneNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return &ARSceneNode{}, nil
}

func (f *ARSceneNodeFactory) ID() string {
	return "arScene"
}

func (f *ARSceneNodeFactory) Name() string {
	return "AR Scene"
}

func (f *ARSceneNodeFactory) Description() string {
	return "Anchors UPDL objects to an AR marker and renders an AR.js page"
}

func (f *ARSceneNodeFactory) Category() models.Category {
	return models.CategoryAR
}

func (f *ARSceneNodeFactory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "AR Scene",
		Properties: map[string]*models.Property{
			"name":        {Type: "string"},
			"markerType":  {Type: "string", Enum: []any{"preset", "pattern", "barcode"}, Default: "preset"},
			"markerValue": {Type: "string", Description: "Preset name, pattern url or barcode value"},
			"renderHtml":  {Type: "boolean", Default: true},
			"objects":     {Description: "Connected updlObject nodes"},
			"lights":      {Description: "Connected updlLight nodes"},
		},
	}
}
