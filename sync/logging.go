package sync

import (
	"encoding/json"
	"log"
	"sync/atomic"
)

// Log messages written to the Hull connector log.
const (
	LogOutgoingUserSkip      = "outgoing.user.skip"
	LogOutgoingUserSuccess   = "outgoing.user.success"
	LogOutgoingUserError     = "outgoing.user.error"
	LogIncomingEventSuccess  = "incoming.event.success"
	LogIncomingEventError    = "incoming.event.error"
	LogIncomingEventTest     = "incoming.event.test"
	LogConnectorWebhookOK    = "connector.webhook.success"
	LogConnectorWebhookError = "connector.webhook.error"
	LogConnectorMetadataErr  = "connector.metadata.error"
)

// Sink sends connector logs to Hull and counts Mailjet API calls.
type Sink struct {
	hull     HullClient
	metrics  MetricsClient
	apiCalls atomic.Int64
}

func NewSink(hull HullClient, metrics MetricsClient) *Sink {
	return &Sink{hull: hull, metrics: metrics}
}

// APICalls returns the number of Mailjet API calls counted so far.
func (s *Sink) APICalls() int64 {
	return s.apiCalls.Load()
}

// IncrementAPICalls records one Mailjet API call.
func (s *Sink) IncrementAPICalls() {
	s.apiCalls.Add(1)
	if s.metrics != nil {
		s.metrics.Increment(MetricAPICall, 1)
	}
}

func (s *Sink) connectorLogger() HullLogger {
	if s.hull == nil {
		return StdLogger{}
	}
	return s.hull.Logger()
}

func (s *Sink) userLogger(claims HullUserClaims) HullLogger {
	if s.hull == nil {
		return StdLogger{}
	}
	return s.hull.AsUser(claims).Logger()
}

func (s *Sink) Skip(claims HullUserClaims, reason string) {
	s.userLogger(claims).Debug(LogOutgoingUserSkip, map[string]interface{}{"reason": reason})
}

// OutgoingAPIResult logs the outcome of a Mailjet call made for one user.
func (s *Sink) OutgoingAPIResult(claims HullUserClaims, apiResult APIResultObject) {
	payload := map[string]interface{}{"apiResult": apiResult}
	if apiResult.IsSuccess() {
		s.userLogger(claims).Debug(LogOutgoingUserSuccess, payload)
		return
	}
	s.userLogger(claims).Error(LogOutgoingUserError, payload)
}

// OutgoingUnexpectedError logs an error that aborted the processing of one user.
func (s *Sink) OutgoingUnexpectedError(claims HullUserClaims, errorName string, err error) {
	s.userLogger(claims).Error(LogOutgoingUserError, map[string]interface{}{
		"errorMessage": err.Error(),
		"errorName":    errorName,
	})
}

func (s *Sink) WebhookAPIResult(reason string, apiResult APIResultObject) {
	if apiResult.IsSuccess() {
		s.connectorLogger().Debug(LogConnectorWebhookOK, map[string]interface{}{"apiResult": apiResult})
		return
	}
	s.connectorLogger().Error(LogConnectorWebhookError, map[string]interface{}{
		"reason":    reason,
		"apiResult": apiResult,
	})
}

func (s *Sink) WebhookCommunicationError(err APICommunicationError) {
	s.connectorLogger().Error(LogConnectorWebhookError, map[string]interface{}{
		"reason":    err.Message,
		"apiResult": err.APIResult,
	})
}

func (s *Sink) MetadataError(apiResult APIResultObject) {
	s.connectorLogger().Error(LogConnectorMetadataErr, map[string]interface{}{
		"reason":    ErrorMetadataFailedToRetrieveList,
		"apiResult": apiResult,
	})
}

func (s *Sink) IncomingEventTest(claims HullUserClaims, event MailjetEvent) {
	s.connectorLogger().Info(LogIncomingEventTest, map[string]interface{}{"ident": claims, "event": event})
}

func (s *Sink) IncomingEventSuccess(user HullUserScope, event MailjetEvent) {
	user.Logger().Debug(LogIncomingEventSuccess, map[string]interface{}{"event": event})
}

func (s *Sink) IncomingEventUnknown(err UnknownEventError) {
	s.connectorLogger().Error(LogIncomingEventError, map[string]interface{}{
		"reason": ErrorIncomingEventUnknown,
		"event":  err.Event,
	})
}

func (s *Sink) IncomingEventInvalid(err InvalidEventError) {
	s.connectorLogger().Error(LogIncomingEventError, map[string]interface{}{
		"reason": ErrorIncomingEventInvalid,
		"event":  err.Event,
	})
}

func (s *Sink) IncomingEventError(user HullUserScope, event MailjetEvent, err error) {
	user.Logger().Error(LogIncomingEventError, map[string]interface{}{
		"reason": err.Error(),
		"event":  event,
	})
}

// StdLogger writes connector logs through the standard logger as JSON payloads.
type StdLogger struct {
	Prefix string // e.g. the claims of the user the log is about
}

func (l StdLogger) print(level string, message string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Warning: failed to encode payload of %s log %v", message, err)
		b = []byte("null")
	}
	if l.Prefix != "" {
		log.Printf("[%s] %s %s %s", level, l.Prefix, message, b)
		return
	}
	log.Printf("[%s] %s %s", level, message, b)
}

func (l StdLogger) Debug(message string, payload interface{}) {
	l.print("debug", message, payload)
}

func (l StdLogger) Info(message string, payload interface{}) {
	l.print("info", message, payload)
}

func (l StdLogger) Error(message string, payload interface{}) {
	l.print("error", message, payload)
}
