package sync

import (
	"context"
	"fmt"
	"log"
	"net/http"
)

// SyncAgent is the entry point for one connector invocation.
type SyncAgent struct {
	settings *Settings
	identity ConnectorIdentity
	hull     HullClient
	sink     *Sink
	mailjet  MailjetClient
	mapper   Mapper
}

type AgentOption func(*SyncAgent)

// WithBaseURL points the Mailjet client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) AgentOption {
	return func(a *SyncAgent) {
		a.mailjet.BaseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) AgentOption {
	return func(a *SyncAgent) {
		a.mailjet.HTTPClient = client
	}
}

// WithRecordDir records every Mailjet request and response to dir.
func WithRecordDir(dir string) AgentOption {
	return func(a *SyncAgent) {
		a.mailjet.RecordDir = dir
	}
}

// NewSyncAgent creates an agent. settings may be nil when the connector has none yet.
func NewSyncAgent(hull HullClient, metrics MetricsClient, settings *Settings, identity ConnectorIdentity, options ...AgentOption) *SyncAgent {
	a := &SyncAgent{
		identity: identity,
		hull:     hull,
		sink:     NewSink(hull, metrics),
	}
	a.setSettings(settings)
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *SyncAgent) setSettings(settings *Settings) {
	var s Settings
	if settings != nil {
		s = *settings
		a.settings = &s
	} else {
		a.settings = nil
	}
	mailjet := NewMailjetClient(s)
	mailjet.BaseURL = a.mailjet.BaseURL
	mailjet.HTTPClient = a.mailjet.HTTPClient
	mailjet.RecordDir = a.mailjet.RecordDir
	a.mailjet = mailjet
	a.mapper = NewMapper(s)
}

// Settings returns a copy of the settings in use, or nil.
func (a *SyncAgent) Settings() *Settings {
	if a.settings == nil {
		return nil
	}
	s := *a.settings
	return &s
}

func (a *SyncAgent) Mapper() Mapper {
	return a.mapper
}

// APICalls returns the number of Mailjet API calls made by this agent.
func (a *SyncAgent) APICalls() int64 {
	return a.sink.APICalls()
}

func (a *SyncAgent) IsAuthConfigured() bool {
	return a.settings != nil && a.settings.IsAuthConfigured()
}

// SendUserMessages processes the messages one after the other.
func (a *SyncAgent) SendUserMessages(ctx context.Context, messages []HullUserUpdateMessage, isBatch bool) []OutgoingResult {
	if !a.IsAuthConfigured() {
		return nil
	}
	envelopes := FilterUserMessages(*a.settings, messages, isBatch)
	handler := NewOutgoingUserHandler(a.hull, a.mailjet, a.mapper, a.sink)
	result := make([]OutgoingResult, 0, len(envelopes))
	for _, env := range envelopes {
		result = append(result, handler.Process(ctx, env))
	}
	return result
}

// HandleEventCallbacks dispatches a Mailjet webhook payload, a single event or an array of events.
func (a *SyncAgent) HandleEventCallbacks(ctx context.Context, payload []byte) ([]InboundResult, error) {
	events, err := ParseMailjetEvents(payload)
	if err != nil {
		return nil, err
	}
	return NewEventDispatcher(a.hull, a.mapper, a.sink).Dispatch(ctx, events), nil
}

// EnsureWebhooks converges the event callback registrations to the configured event types.
// With forceRefresh the settings are first reloaded from Hull.
func (a *SyncAgent) EnsureWebhooks(ctx context.Context, forceRefresh bool) WebhookResult {
	if forceRefresh {
		settings, err := a.hull.Settings(ctx)
		if err != nil {
			log.Printf("Warning: failed to refresh connector settings, using the loaded ones %v", err)
		} else {
			a.setSettings(settings)
		}
	}
	if !a.IsAuthConfigured() {
		return WebhookResult{}
	}
	callbackURL, err := a.identity.CallbackURL()
	if err != nil {
		return WebhookResult{Err: fmt.Errorf("failed to build event callback url %w", err)}
	}
	reconciler := NewWebhookReconciler(a.mailjet, a.sink)
	return reconciler.Ensure(ctx, callbackURL, a.settings.IncomingEventCallbackURLEventTypes)
}

// ClearWebhooks removes all registrations of this connector and clears the
// configured event types in Hull.
func (a *SyncAgent) ClearWebhooks(ctx context.Context) WebhookResult {
	if !a.IsAuthConfigured() {
		return WebhookResult{}
	}
	callbackURL, err := a.identity.CallbackURL()
	if err != nil {
		return WebhookResult{Err: fmt.Errorf("failed to build event callback url %w", err)}
	}
	// the event types are cleared even when some deletes failed
	result := NewWebhookReconciler(a.mailjet, a.sink).Clear(ctx, callbackURL)
	err = a.hull.UpdateSettings(ctx, map[string]interface{}{
		"incoming_eventcallbackurl_eventtypes": []string{},
	})
	if err != nil {
		if result.Err == nil {
			result.Err = fmt.Errorf("failed to clear event types in connector settings %w", err)
		} else {
			log.Printf("Warning: failed to clear event types in connector settings %v", err)
		}
		return result
	}
	cleared := *a.settings
	cleared.IncomingEventCallbackURLEventTypes = []string{}
	a.setSettings(&cleared)
	return result
}

// DetermineConnectorStatus computes the status and stores it in Hull.
func (a *SyncAgent) DetermineConnectorStatus(ctx context.Context) (ConnectorStatus, error) {
	status := ConnectorStatus{Status: StatusOK, Messages: []string{}}
	switch {
	case a.settings == nil:
		status.Status = StatusSetupRequired
		status.Messages = append(status.Messages, StatusNoPrivateSettings)
	default:
		if a.settings.APIKey == "" {
			status.Status = StatusSetupRequired
			status.Messages = append(status.Messages, StatusNoAuthNAPIKey)
		}
		if a.settings.APISecretKey == "" {
			status.Status = StatusSetupRequired
			status.Messages = append(status.Messages, StatusNoAuthNAPISecretKey)
		}
	}
	if err := a.hull.PutConnectorStatus(ctx, status); err != nil {
		return status, fmt.Errorf("failed to store connector status %w", err)
	}
	return status, nil
}
