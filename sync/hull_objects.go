package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// HullUser is a Hull user profile. The full document is kept so that attribute
// mappings can address any trait with a path.
type HullUser struct {
	Source
	raw json.RawMessage
}

func NewHullUser(raw []byte) HullUser {
	var u HullUser
	u.raw = append(json.RawMessage(nil), raw...)
	u.Source = NewSource(u.raw)
	return u
}

func (u *HullUser) UnmarshalJSON(b []byte) error {
	*u = NewHullUser(b)
	return nil
}

func (u HullUser) MarshalJSON() ([]byte, error) {
	if len(u.raw) == 0 {
		return []byte("null"), nil
	}
	return u.raw, nil
}

func (u HullUser) ID() string {
	s, _ := u.StringForPath("id")
	return s
}

func (u HullUser) ExternalID() string {
	s, _ := u.StringForPath("external_id")
	return s
}

// Email returns the trimmed email, and false when it is missing, null or blank.
func (u HullUser) Email() (string, bool) {
	s, exists := u.StringForPath("email")
	s = strings.TrimSpace(s)
	return s, exists && s != ""
}

type HullSegment struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type HullUserUpdateMessage struct {
	MessageID string          `json:"message_id,omitempty"`
	User      HullUser        `json:"user"`
	Segments  []HullSegment   `json:"segments"`
	Changes   json.RawMessage `json:"changes,omitempty"`
}

// SegmentIDs returns the ids of the segments the user belongs to.
func (m HullUserUpdateMessage) SegmentIDs() []string {
	result := make([]string, 0, len(m.Segments))
	for _, s := range m.Segments {
		result = append(result, s.ID)
	}
	return result
}

type HullUserClaims struct {
	ID          string `json:"id,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	Email       string `json:"email,omitempty"`
	AnonymousID string `json:"anonymous_id,omitempty"`
}

func (c HullUserClaims) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", struct{ Email, AnonymousID string }{c.Email, c.AnonymousID})
	}
	return string(b)
}

type HullAttributeValue struct {
	Value     interface{} `json:"value"`
	Operation string      `json:"operation"`
}

type HullAttribute struct {
	Name  string
	Value interface{}
}

// HullAttributes is an ordered attribute bag, marshalled with its keys in insertion order.
type HullAttributes []HullAttribute

func (a *HullAttributes) Set(name string, value interface{}) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, HullAttribute{Name: name, Value: value})
}

func (a HullAttributes) Get(name string) (interface{}, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

func (a HullAttributes) Names() []string {
	result := make([]string, 0, len(a))
	for _, attr := range a {
		result = append(result, attr.Name)
	}
	return result
}

func (a HullAttributes) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, attr := range a {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

type HullEvent struct {
	Event      string           `json:"event"`
	CreatedAt  string           `json:"created_at"`
	Properties json.RawMessage  `json:"properties"`
	Context    HullEventContext `json:"context"`
}

type HullEventContext struct {
	IP interface{} `json:"ip"`
}

// TrackContext is the context passed to HullUserScope.Track.
type TrackContext struct {
	IP        interface{} `json:"ip"`
	CreatedAt string      `json:"created_at"`
	Source    string      `json:"source"`
}

type ConnectorStatus struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages"`
}

// HullLogger receives the connector logs shown to Hull users.
type HullLogger interface {
	Debug(message string, payload interface{})
	Info(message string, payload interface{})
	Error(message string, payload interface{})
}

// HullUserScope is the Hull client bound to one user.
type HullUserScope interface {
	Traits(ctx context.Context, attributes HullAttributes) error
	Track(ctx context.Context, event string, properties json.RawMessage, trackContext TrackContext) error
	Logger() HullLogger
}

type HullClient interface {
	AsUser(claims HullUserClaims) HullUserScope
	Logger() HullLogger
	PutConnectorStatus(ctx context.Context, status ConnectorStatus) error
	// Settings returns the current private settings of the connector.
	Settings(ctx context.Context) (*Settings, error)
	UpdateSettings(ctx context.Context, settings map[string]interface{}) error
}

type MetricsClient interface {
	Increment(name string, value int)
}
