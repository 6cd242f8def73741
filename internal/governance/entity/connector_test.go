package entity

import "testing"

func TestPasswordExpiryFromConnector(t *testing.T) {
	c := Connector{Properties: []Property{
		{Name: PropExpiryEnabled, Value: "true"},
		{Name: PropExpiryDays, Value: "30"},
		{Name: "unrelated", Value: "x"},
	}}

	got := PasswordExpiryFromConnector(c)

	if !got.Enabled || got.ExpiryInDays != 30 {
		t.Fatalf("unexpected expiry %+v", got)
	}
	if props := got.Properties(); len(props) != 2 || props[1].Value != "30" {
		t.Fatalf("unexpected properties %+v", props)
	}
}

func TestPasswordValidationFromConnector_Defaults(t *testing.T) {
	c := Connector{Properties: []Property{
		{Name: PropPolicyEnabled, Value: "yes"},
		{Name: PropPolicyMin, Value: "eight"},
		{Name: PropPolicyMax, Value: "64"},
		{Name: PropPolicyPattern, Value: "^.{8,64}$"},
	}}

	got := PasswordValidationFromConnector(c)

	if got.Enabled {
		t.Fatalf("unparseable bool must read as false")
	}
	if got.MinLength != 0 || got.MaxLength != 64 || got.Pattern != "^.{8,64}$" || got.ErrorMessage != "" {
		t.Fatalf("unexpected validation %+v", got)
	}
}
