package sync

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"go.uber.org/config"
)

// Settings holds the connector configuration for one tenant.
// It is loaded once per invocation and must not be modified afterwards.
type Settings struct {
	APIKey                             string             `json:"api_key" yaml:"api_key"`
	APISecretKey                       string             `json:"api_secret_key" yaml:"api_secret_key"`
	SubaccountSlug                     string             `json:"subaccount_slug,omitempty" yaml:"subaccount_slug"`
	ContactSynchronizedSegments        []SegmentMapping   `json:"contact_synchronized_segments" yaml:"contact_synchronized_segments"`
	ContactAttributesOutbound          []AttributeMapping `json:"contact_attributes_outbound" yaml:"contact_attributes_outbound"`
	IncomingEventCallbackURLEventTypes []string           `json:"incoming_eventcallbackurl_eventtypes" yaml:"incoming_eventcallbackurl_eventtypes"`
}

// AttributeMapping maps a Hull attribute path to a Mailjet contact property.
type AttributeMapping struct {
	HullFieldName    string `json:"hull_field_name" yaml:"hull_field_name"`
	ServiceFieldName string `json:"service_field_name" yaml:"service_field_name"`
}

// IsValid reports whether both sides of the mapping are set.
func (m AttributeMapping) IsValid() bool {
	return strings.TrimSpace(m.HullFieldName) != "" && strings.TrimSpace(m.ServiceFieldName) != ""
}

// Trimmed returns the mapping without surrounding whitespace on either side.
func (m AttributeMapping) Trimmed() AttributeMapping {
	return AttributeMapping{
		HullFieldName:    strings.TrimSpace(m.HullFieldName),
		ServiceFieldName: strings.TrimSpace(m.ServiceFieldName),
	}
}

// SegmentMapping maps a Hull segment to a Mailjet contact list.
type SegmentMapping struct {
	HullSegmentID string `json:"hull_segment_id" yaml:"hull_segment_id"`
	ServiceListID int64  `json:"service_list_id" yaml:"service_list_id"`
}

// IsAuthConfigured reports whether both credential fields are set.
func (s Settings) IsAuthConfigured() bool {
	return s.APIKey != "" && s.APISecretKey != ""
}

// SynchronizedSegmentIDs returns the Hull segment ids that have a list mapping.
func (s Settings) SynchronizedSegmentIDs() []string {
	var result []string
	for _, m := range s.ContactSynchronizedSegments {
		if m.HullSegmentID != "" {
			result = append(result, m.HullSegmentID)
		}
	}
	return result
}

// Validate checks the settings against the settings schema.
func (s Settings) Validate() error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings %w", err)
	}
	return validateSettingsDocument(b)
}

// ParseSettingsJSON decodes the private settings document of a connector.
// Comments and trailing commas are tolerated.
func ParseSettingsJSON(raw []byte) (Settings, error) {
	var result Settings
	stripped := jsonc.ToJSON(raw)
	if err := validateSettingsDocument(stripped); err != nil {
		return result, err
	}
	if err := json.Unmarshal(stripped, &result); err != nil {
		return result, fmt.Errorf("failed to decode settings %w", err)
	}
	return result, nil
}

// ConnectorIdentity describes how Mailjet reaches this connector instance.
type ConnectorIdentity struct {
	ID          string // basic auth user
	Secret      string // basic auth password
	URL         string // public base URL of the connector, e.g. https://mailjet.connectors.example.com
	HomepageURL string // the connector page inside the Hull organization
}

// CallbackURL builds the event callback URL registered with Mailjet.
func (c ConnectorIdentity) CallbackURL() (*url.URL, error) {
	connectorURL, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connector url %w", err)
	}
	homepageURL, err := url.Parse(c.HomepageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse homepage url %w", err)
	}
	if connectorURL.Host == "" || homepageURL.Host == "" {
		return nil, fmt.Errorf("connector url %q and homepage url %q must both have a host", c.URL, c.HomepageURL)
	}
	if c.ID == "" || c.Secret == "" {
		return nil, fmt.Errorf("connector id and secret are required to build the callback url")
	}
	return &url.URL{
		Scheme:   connectorURL.Scheme,
		User:     url.UserPassword(c.ID, c.Secret),
		Host:     connectorURL.Host,
		Path:     "/eventcallback",
		RawQuery: url.Values{"org": {homepageURL.Host}}.Encode(),
	}, nil
}

// OrganizationHost returns the Hull organization host of the homepage URL.
func (c ConnectorIdentity) OrganizationHost() string {
	u, err := url.Parse(c.HomepageURL)
	if err != nil {
		return ""
	}
	return u.Host
}

type SettingsUnmarshaler interface {
	Unmarshal(compev CompositeEnvVar, sources ...SettingsFile) (Settings, error)
}

type CompositeEnvVar interface {
	LookupEnv(child string) (string, bool)
}

// JSONCompositeEnvVar resolves variables from a JSON object stored in a single env var.
type JSONCompositeEnvVar struct {
	Parent string
}

func (c JSONCompositeEnvVar) LookupEnv(child string) (string, bool) {
	if c.Parent != "" {
		s := os.Getenv(c.Parent)
		if s != "" {
			m := make(map[string]string)
			err := json.Unmarshal([]byte(s), &m)
			if err == nil {
				v, exists := m[child]
				return v, exists
			}
		}
	}
	return "", false
}

type YAMLSettingsUnmarshaler struct{}

// Unmarshal merges the YAML sources in order (later sources win) and expands ${VAR} references.
func (u YAMLSettingsUnmarshaler) Unmarshal(compev CompositeEnvVar, sources ...SettingsFile) (Settings, error) {
	var result Settings
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(compev.LookupEnv))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml settings %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml settings %w", key, cause)
	}
	for key, target := range map[string]*string{
		"api_key":         &result.APIKey,
		"api_secret_key":  &result.APISecretKey,
		"subaccount_slug": &result.SubaccountSlug,
	} {
		if yaml.Get(key).HasValue() {
			if err = yaml.Get(key).Populate(target); err != nil {
				return result, readError(key, err)
			}
		}
	}
	key := "contact_synchronized_segments"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.ContactSynchronizedSegments)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "contact_attributes_outbound"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.ContactAttributesOutbound)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "incoming_eventcallbackurl_eventtypes"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.IncomingEventCallbackURLEventTypes)
		if err != nil {
			return result, readError(key, err)
		}
	}

	if err = result.Validate(); err != nil {
		return result, err
	}
	return result, nil
}
