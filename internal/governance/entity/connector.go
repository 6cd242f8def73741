package entity

import (
	"strconv"

	"github.com/samber/lo"
)

// Property names of the password connectors.
const (
	PropExpiryEnabled = "passwordExpiry.enablePasswordExpiry"
	PropExpiryDays    = "passwordExpiry.passwordExpiryInDays"

	PropPolicyEnabled  = "passwordPolicy.enable"
	PropPolicyMin      = "passwordPolicy.min.length"
	PropPolicyMax      = "passwordPolicy.max.length"
	PropPolicyPattern  = "passwordPolicy.pattern"
	PropPolicyErrorMsg = "passwordPolicy.errorMsg"
)

type Property struct {
	Name        string
	Value       string
	DisplayName string
	Description string
}

// Connector is one identity-governance connector and its properties.
type Connector struct {
	ID           string
	Name         string
	FriendlyName string
	Category     string
	Order        int
	Properties   []Property
}

// Values indexes the properties by name.
func (c Connector) Values() map[string]string {
	return lo.SliceToMap(c.Properties, func(p Property) (string, string) {
		return p.Name, p.Value
	})
}

// PasswordExpiry is the typed view of the password-expiry connector.
type PasswordExpiry struct {
	Enabled      bool
	ExpiryInDays int
}

func PasswordExpiryFromConnector(c Connector) PasswordExpiry {
	v := c.Values()
	return PasswordExpiry{
		Enabled:      parseBool(v[PropExpiryEnabled]),
		ExpiryInDays: parseInt(v[PropExpiryDays]),
	}
}

func (p PasswordExpiry) Properties() []Property {
	return []Property{
		{Name: PropExpiryEnabled, Value: strconv.FormatBool(p.Enabled)},
		{Name: PropExpiryDays, Value: strconv.Itoa(p.ExpiryInDays)},
	}
}

// PasswordValidation is the typed view of the password-policy connector.
type PasswordValidation struct {
	Enabled      bool
	MinLength    int
	MaxLength    int
	Pattern      string
	ErrorMessage string
}

func PasswordValidationFromConnector(c Connector) PasswordValidation {
	v := c.Values()
	return PasswordValidation{
		Enabled:      parseBool(v[PropPolicyEnabled]),
		MinLength:    parseInt(v[PropPolicyMin]),
		MaxLength:    parseInt(v[PropPolicyMax]),
		Pattern:      v[PropPolicyPattern],
		ErrorMessage: v[PropPolicyErrorMsg],
	}
}

func (p PasswordValidation) Properties() []Property {
	return []Property{
		{Name: PropPolicyEnabled, Value: strconv.FormatBool(p.Enabled)},
		{Name: PropPolicyMin, Value: strconv.Itoa(p.MinLength)},
		{Name: PropPolicyMax, Value: strconv.Itoa(p.MaxLength)},
		{Name: PropPolicyPattern, Value: p.Pattern},
		{Name: PropPolicyErrorMsg, Value: p.ErrorMessage},
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
