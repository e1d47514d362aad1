// Package web provides the HTTP handlers for running and managing flows.
package web

import "github.com/dukex/updlflow/pkg/models"

// FlowRequest represents the request body for creating or replacing a flow.
type FlowRequest struct {
	Name           string                  `json:"name"           validate:"required,min=1"`
	Type           models.FlowType         `json:"type"           validate:"omitempty,oneof=CHATFLOW AR UPDL"`
	FlowData       *models.FlowData        `json:"flowData"`
	OverrideConfig models.OverrideSettings `json:"overrideConfig"`
}

// ToFlow converts the request into a flow model. Type defaults to CHATFLOW.
func (r *FlowRequest) ToFlow() *models.Flow {
	flowType := r.Type
	if flowType == "" {
		flowType = models.FlowTypeChat
	}

	return &models.Flow{
		Name:     r.Name,
		Type:     flowType,
		FlowData: r.FlowData,
		Override: r.OverrideConfig,
	}
}

// VariableRequest represents the request body for creating or updating a variable.
type VariableRequest struct {
	Name  string `json:"name"  validate:"required,min=1"`
	Value string `json:"value"`
	Type  string `json:"type"  validate:"omitempty,oneof=static runtime"`
}

// APIKeyResponse carries a newly issued key. It is only shown once.
type APIKeyResponse struct {
	FlowID string `json:"chatflowid"`
	APIKey string `json:"apiKey"`
}

// AbortResponse reports whether a running prediction was cancelled.
type AbortResponse struct {
	FlowID  string `json:"chatflowid"`
	ChatID  string `json:"chatId"`
	Aborted bool   `json:"aborted"`
}
