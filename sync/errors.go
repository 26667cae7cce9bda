package sync

import (
	"encoding/json"
	"fmt"
)

// UnknownEventError is returned for Mailjet events the connector does not handle.
type UnknownEventError struct {
	Event MailjetEvent
}

func (e UnknownEventError) Error() string {
	return fmt.Sprintf("%s (type: %q)", ErrorIncomingEventUnknown, e.Event.Type())
}

// InvalidEventError is returned for records of an event batch that are not JSON objects.
type InvalidEventError struct {
	Event MailjetEvent
}

func (e InvalidEventError) Error() string {
	return fmt.Sprintf("%s (record: %s)", ErrorIncomingEventInvalid, e.Event.raw)
}

// APICommunicationError reports a failed Mailjet call that aborts a whole operation.
type APICommunicationError struct {
	Message   string
	APIResult APIResultObject
}

func (e APICommunicationError) Error() string {
	if e.APIResult != nil {
		if err := e.APIResult.GetError(); err != nil {
			return fmt.Sprintf("%s %s", e.Message, err.Error())
		}
	}
	return e.Message
}

func (e APICommunicationError) Unwrap() error {
	if e.APIResult == nil {
		return nil
	}
	return e.APIResult.GetError()
}

func (e APICommunicationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message   string          `json:"message"`
		APIResult APIResultObject `json:"apiResult,omitempty"`
	}{e.Message, e.APIResult})
}
