package sync

// MailjetAPIBaseURL is the root of the Mailjet REST v3 API.
const MailjetAPIBaseURL = "https://api.mailjet.com/v3/REST"

// Mailjet properties that are set on the contact itself rather than as contact data.
// Both the label and the value form are accepted in attribute mappings.
const (
	MailjetAttributeDefaultName                         = "Name (*)"
	MailjetAttributeDefaultNameValue                    = "Name__d"
	MailjetAttributeDefaultIsExcludedFromCampaigns      = "Is Excluded From Campaigns"
	MailjetAttributeDefaultIsExcludedFromCampaignsValue = "IsExcludedFromCampaigns__d"
)

const (
	SkipReasonNoEmail   = "User doesn't have an email address and cannot be synchronized with Mailjet."
	SkipReasonBatch     = "Batch is not supported at the moment."
	SkipReasonNoSegment = "User doesn't belong to any of the segments defined in the Contact Filter."
)

const (
	StatusOK                  = "ok"
	StatusSetupRequired       = "setupRequired"
	StatusNoPrivateSettings   = "Unable to load settings to determine connector status. Please contact support if that error persists."
	StatusNoAuthNAPIKey       = "Missing credentials: The field 'API Key' in Settings is empty."
	StatusNoAuthNAPISecretKey = "Missing credentials: The field 'API Secret Key' in Settings is empty."
)

const (
	ErrorIncomingEventUnknown         = "Unknown event. The event received is not supported by the connector."
	ErrorIncomingEventInvalid         = "Invalid event. The record received is not a JSON object."
	ErrorWebhookFailedToRetrieveList  = "Failed to retrieve the list of registered event callback URLs from Mailjet."
	ErrorWebhookFailedToCreate        = "Failed to register the event callback URL with Mailjet."
	ErrorWebhookFailedToDelete        = "Failed to unregister the event callback URL from Mailjet."
	ErrorMetadataFailedToRetrieveList = "Failed to retrieve metadata from Mailjet."
)

// MetricAPICall is incremented once per Mailjet API call.
const MetricAPICall = "ship.service_api.call"

// EventSourceMailjet tags every event tracked in Hull.
const EventSourceMailjet = "mailjet"

// MailjetEventTypes lists the supported webhook event types in registration order.
var MailjetEventTypes = []string{"open", "click", "bounce", "spam", "blocked", "unsub", "sent"}

// MailjetEventMapping maps a Mailjet event type to the Hull event name.
var MailjetEventMapping = map[string]string{
	"open":    "Email Opened",
	"click":   "Email Link Clicked",
	"bounce":  "Email Bounced",
	"spam":    "Email Marked as Spam",
	"blocked": "Blocked",
	"unsub":   "List Unsubscribed",
	"sent":    "Email Sent",
}
