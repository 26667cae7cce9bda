package sync

import (
	"context"
	"fmt"
)

type InboundOutcome string

const (
	InboundTracked InboundOutcome = "tracked"
	InboundTest    InboundOutcome = "test"
	InboundUnknown InboundOutcome = "unknown"
	InboundFailed  InboundOutcome = "failed"
)

// InboundResult is the outcome of dispatching one Mailjet event.
type InboundResult struct {
	Event   MailjetEvent
	Outcome InboundOutcome
	Err     error
}

// EventDispatcher forwards Mailjet webhook events to Hull as tracked events.
type EventDispatcher struct {
	hull   HullClient
	mapper Mapper
	sink   *Sink
}

func NewEventDispatcher(hull HullClient, mapper Mapper, sink *Sink) EventDispatcher {
	return EventDispatcher{hull: hull, mapper: mapper, sink: sink}
}

// Dispatch handles the events in order. A failing event never stops the others.
func (d EventDispatcher) Dispatch(ctx context.Context, events []MailjetEvent) []InboundResult {
	result := make([]InboundResult, 0, len(events))
	for _, event := range events {
		result = append(result, d.dispatch(ctx, event))
	}
	return result
}

func (d EventDispatcher) dispatch(ctx context.Context, event MailjetEvent) (result InboundResult) {
	result.Event = event
	if !event.IsObject() {
		invalid := InvalidEventError{Event: event}
		d.sink.IncomingEventInvalid(invalid)
		result.Outcome = InboundFailed
		result.Err = invalid
		return result
	}
	hullEvent, known, err := d.mapper.MapEventToHullEvent(event)
	if !known {
		unknown := UnknownEventError{Event: event}
		d.sink.IncomingEventUnknown(unknown)
		result.Outcome = InboundUnknown
		result.Err = unknown
		return result
	}

	claims := d.mapper.MapEventToHullUserClaims(event)
	if event.ContactID() == 0 {
		d.sink.IncomingEventTest(claims, event)
		result.Outcome = InboundTest
		return result
	}

	user := d.hull.AsUser(claims)
	defer func() {
		if r := recover(); r != nil {
			result.Outcome = InboundFailed
			result.Err = fmt.Errorf("failed to track %s event: %v", event.Type(), r)
			d.sink.IncomingEventError(user, event, result.Err)
		}
	}()
	if err != nil {
		result.Outcome = InboundFailed
		result.Err = err
		d.sink.IncomingEventError(user, event, err)
		return result
	}

	trackContext := TrackContext{
		IP:        hullEvent.Context.IP,
		CreatedAt: hullEvent.CreatedAt,
		Source:    EventSourceMailjet,
	}
	if err = user.Track(ctx, hullEvent.Event, hullEvent.Properties, trackContext); err != nil {
		result.Outcome = InboundFailed
		result.Err = fmt.Errorf("failed to track %s event %w", event.Type(), err)
		d.sink.IncomingEventError(user, event, result.Err)
		return result
	}
	d.sink.IncomingEventSuccess(user, event)
	result.Outcome = InboundTracked
	return result
}
