package main

import (
	"fmt"
	"os"

	"github.com/dukex/updlflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// flowFile is the on-disk form of a flow. JSON files parse as YAML.
type flowFile struct {
	ID       string                  `yaml:"id"`
	Name     string                  `yaml:"name"`
	Type     models.FlowType         `yaml:"type"`
	Override models.OverrideSettings `yaml:"overrideConfig"`
	FlowData *models.FlowData        `yaml:"flowData"`
}

func loadFlowFile(path string) (*models.Flow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}

	var f flowFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse flow file %s: %w", path, err)
	}

	if f.Type == "" {
		f.Type = models.FlowTypeChat
	}

	if f.ID == "" {
		f.ID = "local"
	}

	return &models.Flow{
		ID:       f.ID,
		Name:     f.Name,
		Type:     f.Type,
		Override: f.Override,
		FlowData: f.FlowData,
	}, nil
}
