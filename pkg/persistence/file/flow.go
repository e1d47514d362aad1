package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
)

// flowRecord keeps the API key hash, which the API model never serializes.
type flowRecord struct {
	*models.Flow

	APIKeyHash string `json:"apiKeyHash,omitempty"`
}

// FlowRepository handles flow-related file operations.
type FlowRepository struct {
	root string
	mu   sync.RWMutex
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{root: root}
}

func (fr *FlowRepository) dir() string {
	return path.Join(fr.root, "chatflows")
}

// GetAll returns every stored flow, newest first.
func (fr *FlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	fr.mu.RLock()
	defer fr.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(fr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		flow, err := fr.load(file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if flow != nil {
			flows = append(flows, flow)
		}
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})

	return flows, nil
}

// GetByID retrieves a flow by its ID from the file system.
func (fr *FlowRepository) GetByID(_ context.Context, flowID string) (*models.Flow, error) {
	if err := safeName(flowID); err != nil {
		return nil, nil
	}

	fr.mu.RLock()
	defer fr.mu.RUnlock()

	return fr.load(flowID)
}

func (fr *FlowRepository) load(flowID string) (*models.Flow, error) {
	record := flowRecord{Flow: &models.Flow{}}

	found, err := readJSON(path.Join(fr.dir(), flowID+".json"), &record)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flow %s: %w", flowID, err)
	}

	if !found {
		return nil, nil
	}

	record.Flow.APIKeyHash = record.APIKeyHash

	return record.Flow, nil
}

// Save saves a flow to the file system.
func (fr *FlowRepository) Save(_ context.Context, flow *models.Flow) error {
	if err := safeName(flow.ID); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	err := writeJSON(path.Join(fr.dir(), flow.ID+".json"), flowRecord{Flow: flow, APIKeyHash: flow.APIKeyHash})
	if err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flow.ID, err)
	}

	return nil
}

// Delete removes a flow by its ID.
func (fr *FlowRepository) Delete(_ context.Context, id string) error {
	if err := safeName(id); err != nil {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	err := os.Remove(path.Join(fr.dir(), id+".json"))
	if os.IsNotExist(err) {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}

	return nil
}
