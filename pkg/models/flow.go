package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// FlowType selects which terminal domain a flow produces.
type FlowType string

const (
	FlowTypeChat FlowType = "CHATFLOW" // Text response
	FlowTypeAR   FlowType = "AR"       // AR scene description
	FlowTypeUPDL FlowType = "UPDL"     // Generic structured scene
)

// ErrInvalidFlowData is returned when a persisted graph cannot be decoded.
var ErrInvalidFlowData = errors.New("invalid flow data")

// FlowData is the persisted graph of a flow.
type FlowData struct {
	Nodes []*Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []*Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// NodeByID returns the node with the given id.
func (f *FlowData) NodeByID(id string) (*Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return nil, false
}

// OverrideSettings controls whether a request may override node inputs.
type OverrideSettings struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// AllowedInputs restricts overrides to these input names. Empty allows all.
	AllowedInputs []string `json:"allowedInputs,omitempty" yaml:"allowedInputs,omitempty"`
}

// Allows reports whether the named input may be overridden.
func (o OverrideSettings) Allows(input string) bool {
	if !o.Enabled {
		return false
	}

	if len(o.AllowedInputs) == 0 {
		return true
	}

	for _, name := range o.AllowedInputs {
		if name == input {
			return true
		}
	}

	return false
}

// Flow is a saved flow graph with its execution settings.
type Flow struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"                 validate:"required,min=1"`
	Type       FlowType         `json:"type"                 validate:"required,oneof=CHATFLOW AR UPDL"`
	FlowData   *FlowData        `json:"flowData"             validate:"required"`
	APIKeyHash string           `json:"-"`
	Override   OverrideSettings `json:"overrideConfig"`
	Deployed   bool             `json:"deployed"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// RequiresAPIKey reports whether callers must present a key.
func (f *Flow) RequiresAPIKey() bool {
	return f.APIKeyHash != ""
}

// Variable is a globally stored named value available to every flow.
type Variable struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"      validate:"required,min=1"`
	Value     string    `json:"value"`
	Type      string    `json:"type"      validate:"omitempty,oneof=static runtime"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageRole identifies who produced a chat message.
type MessageRole string

const (
	RoleUser MessageRole = "userMessage"
	RoleAPI  MessageRole = "apiMessage"
)

// ChatMessage is one entry of a stored conversation.
type ChatMessage struct {
	ID        string      `json:"id"`
	FlowID    string      `json:"chatflowid"`
	ChatID    string      `json:"chatId"`
	SessionID string      `json:"sessionId,omitempty"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdDate"`
}

var flowDataValidator = validator.New(validator.WithRequiredStructEnabled())

// DecodeFlowData parses and validates a persisted graph.
func DecodeFlowData(raw []byte) (*FlowData, error) {
	var data FlowData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlowData, err)
	}

	if err := ValidateFlowData(&data); err != nil {
		return nil, err
	}

	return &data, nil
}

// ValidateFlowData checks required fields and node categories.
func ValidateFlowData(data *FlowData) error {
	if data == nil {
		return fmt.Errorf("%w: flow data is empty", ErrInvalidFlowData)
	}

	if err := flowDataValidator.Struct(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFlowData, err)
	}

	for _, n := range data.Nodes {
		if !n.Data.Category.Valid() {
			return fmt.Errorf("%w: node %s has unknown category %q", ErrInvalidFlowData, n.ID, n.Data.Category)
		}

		if n.Data.ID == "" {
			n.Data.ID = n.ID
		}

		if n.Data.Inputs == nil {
			n.Data.Inputs = make(map[string]any)
		}
	}

	return nil
}
