package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
)

// VariablesResponse lists variable tokens in sorted order.
type VariablesResponse struct {
	Variables []string `json:"variables"`
}

// ValidateFunctionRequest identifies the formula a function call appears in.
// At most one of HeadingID and PackageItemID may be set; Order scopes a call
// in an item that has not been saved yet.
type ValidateFunctionRequest struct {
	HeadingID     *uuid.UUID          `json:"heading_id,omitempty"`
	PackageItemID *uuid.UUID          `json:"package_item_id,omitempty"`
	PackageID     *uuid.UUID          `json:"package_id,omitempty"`
	Order         *int                `json:"order,omitempty"`
	Type          models.HeadingType  `json:"type,omitempty"`
	DurationUnit  models.DurationUnit `json:"duration_unit,omitempty"`
	Arguments     []any               `json:"arguments"`
}

// ValidateFunctionResponse reports argument errors and the variables the
// call depends on.
type ValidateFunctionResponse struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	UsedVariables []string `json:"used_variables"`
}

// PluginResponse describes an installed plugin without its module.
type PluginResponse struct {
	PluginID   uuid.UUID       `json:"plugin_id"`
	Name       string          `json:"name"`
	Properties json.RawMessage `json:"properties"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PluginsResponse lists installed plugins.
type PluginsResponse struct {
	Plugins []PluginResponse `json:"plugins"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Stage is the trust pipeline stage that rejected a plugin.
	Stage string `json:"stage,omitempty"`
}

func pluginResponse(p *models.Plugin) PluginResponse {
	props := json.RawMessage(p.Properties)
	if !json.Valid(props) {
		props = json.RawMessage("null")
	}
	return PluginResponse{
		PluginID:   p.PluginID,
		Name:       p.Name,
		Properties: props,
		CreatedAt:  p.CreatedAt,
	}
}
