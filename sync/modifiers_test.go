// go test github.com/homemade/mjsync/sync -v
package sync

import "testing"

var testModifierSource Source

func init() {
	testModifierSource = NewSource([]byte(`{
		"address_country": "DE",
		"address_country_unknown": "Atlantis",
		"phone": "07700 900123",
		"phone_international": "+33 1 42 68 53 00",
		"phone_invalid": "call me",
		"tags": ["vip-gold", "basic"],
		"plan": "enterprise-annual",
		"age": 42,
		"email": "Jane.Doe@Example.COM"
	}`))
}

func TestModifierCountryName(t *testing.T) {
	if have, ok := testModifierSource.StringForPath("address_country|@countryName"); !ok || have != "Germany" {
		t.Errorf("Expected country name: Germany but have: %s (%t)", have, ok)
	}
	if have, ok := testModifierSource.StringForPath("address_country_unknown|@countryName"); ok {
		t.Errorf("Expected no country name for an unknown country but have: %s", have)
	}
}

func TestModifierE164(t *testing.T) {
	if have, ok := testModifierSource.StringForPath("phone|@e164:44"); !ok || have != "+447700900123" {
		t.Errorf("Expected phone: +447700900123 but have: %s (%t)", have, ok)
	}
	if have, ok := testModifierSource.StringForPath("phone_international|@e164"); !ok || have != "+33142685300" {
		t.Errorf("Expected phone: +33142685300 but have: %s (%t)", have, ok)
	}
	if have, ok := testModifierSource.StringForPath("phone_invalid|@e164:44"); ok {
		t.Errorf("Expected no phone for an invalid number but have: %s", have)
	}
	if have, ok := testModifierSource.StringForPath("phone_missing|@e164:44"); ok {
		t.Errorf("Expected no phone for a missing number but have: %s", have)
	}
}

func TestModifierContains(t *testing.T) {
	if have, ok := testModifierSource.BoolForPath("tags|@contains:vip"); !ok || !have {
		t.Errorf("Expected tags to contain vip but have: %t (%t)", have, ok)
	}
	if have, _ := testModifierSource.BoolForPath("tags|@contains:trial"); have {
		t.Error("Expected tags not to contain trial")
	}
	if have, ok := testModifierSource.BoolForPath("plan|@contains:annual"); !ok || !have {
		t.Errorf("Expected plan to contain annual but have: %t (%t)", have, ok)
	}
}

func TestModifierGte(t *testing.T) {
	if have, ok := testModifierSource.BoolForPath("age|@gte:18"); !ok || !have {
		t.Errorf("Expected age to be at least 18 but have: %t (%t)", have, ok)
	}
	if have, _ := testModifierSource.BoolForPath("age|@gte:65"); have {
		t.Error("Expected age not to be at least 65")
	}
	if _, ok := testModifierSource.BoolForPath("age_missing|@gte:18"); ok {
		t.Error("Expected no value for a missing attribute")
	}
}

func TestModifierLower(t *testing.T) {
	if have, ok := testModifierSource.StringForPath("email|@lower"); !ok || have != "jane.doe@example.com" {
		t.Errorf("Expected email: jane.doe@example.com but have: %s (%t)", have, ok)
	}
	if have, ok := testModifierSource.IntForPath("age|@lower"); !ok || have != 42 {
		t.Errorf("Expected numbers to be left alone but have: %d (%t)", have, ok)
	}
}
