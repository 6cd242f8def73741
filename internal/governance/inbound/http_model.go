package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/entity"
)

type PropertyResponse struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

type ConnectorResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	FriendlyName string             `json:"friendly_name"`
	Category     string             `json:"category"`
	Order        int                `json:"order"`
	Properties   []PropertyResponse `json:"properties"`
}

type PropertyRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type UpdateConnectorRequest struct {
	Properties []PropertyRequest `json:"properties"`
}

type PasswordExpiryPayload struct {
	Enabled      bool `json:"enabled"`
	ExpiryInDays int  `json:"expiry_in_days"`
}

type PasswordValidationPayload struct {
	Enabled      bool   `json:"enabled"`
	MinLength    int    `json:"min_length"`
	MaxLength    int    `json:"max_length"`
	Pattern      string `json:"pattern"`
	ErrorMessage string `json:"error_message"`
}

func toConnectorResponse(c *entity.Connector) ConnectorResponse {
	return ConnectorResponse{
		ID:           c.ID,
		Name:         c.Name,
		FriendlyName: c.FriendlyName,
		Category:     c.Category,
		Order:        c.Order,
		Properties: lo.Map(c.Properties, func(p entity.Property, _ int) PropertyResponse {
			return PropertyResponse{Name: p.Name, Value: p.Value, DisplayName: p.DisplayName, Description: p.Description}
		}),
	}
}
