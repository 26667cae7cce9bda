package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const (
	testAPIKey       = "mj-key"
	testAPISecretKey = "mj-secret"
)

type fakeLogEntry struct {
	Level   string
	Message string
	Claims  *HullUserClaims
	Payload interface{}
}

type fakeTraits struct {
	Claims     HullUserClaims
	Attributes HullAttributes
}

type fakeTrack struct {
	Claims     HullUserClaims
	Event      string
	Properties json.RawMessage
	Context    TrackContext
}

type fakeHullClient struct {
	logs            []fakeLogEntry
	traits          []fakeTraits
	tracks          []fakeTrack
	statuses        []ConnectorStatus
	settingsUpdates []map[string]interface{}
	settings        *Settings
	settingsErr     error
	trackErr        func(event string) error
	traitsErr       error
}

func (c *fakeHullClient) AsUser(claims HullUserClaims) HullUserScope {
	return &fakeHullUser{client: c, claims: claims}
}

func (c *fakeHullClient) Logger() HullLogger {
	return fakeLogger{client: c}
}

func (c *fakeHullClient) PutConnectorStatus(ctx context.Context, status ConnectorStatus) error {
	c.statuses = append(c.statuses, status)
	return nil
}

func (c *fakeHullClient) Settings(ctx context.Context) (*Settings, error) {
	return c.settings, c.settingsErr
}

func (c *fakeHullClient) UpdateSettings(ctx context.Context, settings map[string]interface{}) error {
	c.settingsUpdates = append(c.settingsUpdates, settings)
	return nil
}

// logsWithMessage returns the log entries with the given message.
func (c *fakeHullClient) logsWithMessage(message string) []fakeLogEntry {
	var result []fakeLogEntry
	for _, l := range c.logs {
		if l.Message == message {
			result = append(result, l)
		}
	}
	return result
}

type fakeHullUser struct {
	client *fakeHullClient
	claims HullUserClaims
}

func (u *fakeHullUser) Traits(ctx context.Context, attributes HullAttributes) error {
	if u.client.traitsErr != nil {
		return u.client.traitsErr
	}
	u.client.traits = append(u.client.traits, fakeTraits{Claims: u.claims, Attributes: attributes})
	return nil
}

func (u *fakeHullUser) Track(ctx context.Context, event string, properties json.RawMessage, trackContext TrackContext) error {
	if u.client.trackErr != nil {
		if err := u.client.trackErr(event); err != nil {
			return err
		}
	}
	u.client.tracks = append(u.client.tracks, fakeTrack{Claims: u.claims, Event: event, Properties: properties, Context: trackContext})
	return nil
}

func (u *fakeHullUser) Logger() HullLogger {
	claims := u.claims
	return fakeLogger{client: u.client, claims: &claims}
}

type fakeLogger struct {
	client *fakeHullClient
	claims *HullUserClaims
}

func (l fakeLogger) log(level, message string, payload interface{}) {
	l.client.logs = append(l.client.logs, fakeLogEntry{Level: level, Message: message, Claims: l.claims, Payload: payload})
}

func (l fakeLogger) Debug(message string, payload interface{}) { l.log("debug", message, payload) }
func (l fakeLogger) Info(message string, payload interface{})  { l.log("info", message, payload) }
func (l fakeLogger) Error(message string, payload interface{}) { l.log("error", message, payload) }

type fakeMetrics struct {
	counts map[string]int
}

func (m *fakeMetrics) Increment(name string, value int) {
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name] += value
}

type stubResponse struct {
	Status int
	Body   string
}

type stubCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (c stubCall) String() string {
	return fmt.Sprintf("%s %s", c.Method, c.Path)
}

// mailjetStub serves canned responses keyed by "METHOD /path".
// Unknown routes answer 404 with a Mailjet error body.
type mailjetStub struct {
	server *httptest.Server
	routes map[string]stubResponse
	calls  []stubCall
}

func newMailjetStub(t *testing.T, routes map[string]stubResponse) *mailjetStub {
	stub := &mailjetStub{routes: routes}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.calls = append(stub.calls, stubCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})

		user, password, ok := r.BasicAuth()
		if !ok || user != testAPIKey || password != testAPISecretKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		response, found := stub.routes[r.Method+" "+r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"ErrorInfo":"","ErrorMessage":"Object not found","StatusCode":404}`)
			return
		}
		status := response.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		io.WriteString(w, response.Body)
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *mailjetStub) client() MailjetClient {
	return MailjetClient{
		APIKey:       testAPIKey,
		APISecretKey: testAPISecretKey,
		BaseURL:      s.server.URL,
		HTTPClient:   s.server.Client(),
	}
}

func (s *mailjetStub) callList() []string {
	result := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		result = append(result, c.String())
	}
	return result
}

func mustUser(t *testing.T, raw string) HullUser {
	t.Helper()
	var u HullUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("invalid user fixture: %v", err)
	}
	return u
}
