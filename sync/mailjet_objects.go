package sync

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

type MailjetPagedResult[T any] struct {
	Count int `json:"Count"`
	Data  []T `json:"Data"`
	Total int `json:"Total"`
}

// First returns the first entry when the page holds exactly one.
func (p MailjetPagedResult[T]) First() (T, bool) {
	var zero T
	if p.Count != 1 || len(p.Data) == 0 {
		return zero, false
	}
	return p.Data[0], true
}

// Page selects a window of a Mailjet list endpoint.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPage is the window used when the caller does not need paging.
var DefaultPage = Page{Offset: 0, Limit: 1000}

type MailjetDatatype string

const (
	MailjetDatatypeString   MailjetDatatype = "str"
	MailjetDatatypeInteger  MailjetDatatype = "int"
	MailjetDatatypeFloat    MailjetDatatype = "float"
	MailjetDatatypeBoolean  MailjetDatatype = "bool"
	MailjetDatatypeDatetime MailjetDatatype = "datetime"
)

type MailjetContactProperty struct {
	Datatype  MailjetDatatype `json:"Datatype"`
	ID        int64           `json:"ID"`
	Name      string          `json:"Name"`
	NameSpace string          `json:"NameSpace"`
}

type MailjetContactList struct {
	IsDeleted       bool   `json:"IsDeleted"`
	Name            string `json:"Name"`
	Address         string `json:"Address,omitempty"`
	CreatedAt       string `json:"CreatedAt,omitempty"`
	ID              int64  `json:"ID"`
	SubscriberCount int    `json:"SubscriberCount"`
}

type MailjetContact struct {
	IsExcludedFromCampaigns         bool   `json:"IsExcludedFromCampaigns"`
	Name                            string `json:"Name"`
	CreatedAt                       string `json:"CreatedAt"`
	DeliveredCount                  int    `json:"DeliveredCount"`
	Email                           string `json:"Email"`
	ExclusionFromCampaignsUpdatedAt string `json:"ExclusionFromCampaignsUpdatedAt"`
	ID                              int64  `json:"ID"`
	IsOptInPending                  bool   `json:"IsOptInPending"`
	IsSpamComplaining               bool   `json:"IsSpamComplaining"`
	LastActivityAt                  string `json:"LastActivityAt"`
	LastUpdateAt                    string `json:"LastUpdateAt"`
}

// Fields returns the contact fields in declaration order, keyed by their Mailjet name.
func (c MailjetContact) Fields() []MailjetContactDataEntry {
	return []MailjetContactDataEntry{
		{Name: "IsExcludedFromCampaigns", Value: c.IsExcludedFromCampaigns},
		{Name: "Name", Value: c.Name},
		{Name: "CreatedAt", Value: c.CreatedAt},
		{Name: "DeliveredCount", Value: c.DeliveredCount},
		{Name: "Email", Value: c.Email},
		{Name: "ExclusionFromCampaignsUpdatedAt", Value: c.ExclusionFromCampaignsUpdatedAt},
		{Name: "ID", Value: c.ID},
		{Name: "IsOptInPending", Value: c.IsOptInPending},
		{Name: "IsSpamComplaining", Value: c.IsSpamComplaining},
		{Name: "LastActivityAt", Value: c.LastActivityAt},
		{Name: "LastUpdateAt", Value: c.LastUpdateAt},
	}
}

type MailjetContactUpdate struct {
	IsExcludedFromCampaigns bool   `json:"IsExcludedFromCampaigns"`
	Name                    string `json:"Name"`
}

type MailjetContactCreate struct {
	Email                   string `json:"Email"`
	IsExcludedFromCampaigns bool   `json:"IsExcludedFromCampaigns"`
	Name                    string `json:"Name"`
}

// Update returns the mutable part of the create payload.
func (c MailjetContactCreate) Update() MailjetContactUpdate {
	return MailjetContactUpdate{
		IsExcludedFromCampaigns: c.IsExcludedFromCampaigns,
		Name:                    c.Name,
	}
}

// DiffersFrom reports whether applying c would change the known contact.
func (c MailjetContactCreate) DiffersFrom(contact MailjetContact) bool {
	return contact.Name != c.Name || contact.IsExcludedFromCampaigns != c.IsExcludedFromCampaigns
}

// MailjetContactDataEntry holds a string, number or boolean value.
type MailjetContactDataEntry struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

type MailjetContactData struct {
	ContactID int64                     `json:"ContactID"`
	ID        int64                     `json:"ID"`
	Data      []MailjetContactDataEntry `json:"Data"`
}

type MailjetContactDataUpdate struct {
	Data []MailjetContactDataEntry `json:"Data"`
}

type MailjetListRecipient struct {
	ContactID      int64  `json:"ContactID"`
	ID             int64  `json:"ID"`
	IsUnsubscribed bool   `json:"IsUnsubscribed"`
	ListID         int64  `json:"ListID"`
	ListName       string `json:"ListName"`
	SubscribedAt   string `json:"SubscribedAt"`
	UnsubscribedAt string `json:"UnsubscribedAt"`
}

type MailjetContactListMembership struct {
	IsActive     bool   `json:"IsActive"`
	IsUnsub      bool   `json:"IsUnsub"`
	ListID       int64  `json:"ListID"`
	SubscribedAt string `json:"SubscribedAt"`
}

// MailjetListAction is deliberately limited to the non-forcing actions.
type MailjetListAction string

const (
	MailjetListActionAddNoForce MailjetListAction = "addnoforce"
	MailjetListActionUnsub      MailjetListAction = "unsub"
)

type MailjetContactListAction struct {
	ListID int64             `json:"ListID"`
	Action MailjetListAction `json:"Action"`
}

type MailjetContactListCrud struct {
	ContactsLists []MailjetContactListAction `json:"ContactsLists"`
}

type MailjetMessage struct {
	Message string `json:"message"`
}

type MailjetEventCallbackURLCreate struct {
	EventType string `json:"EventType"`
	IsBackup  bool   `json:"IsBackup"`
	Status    string `json:"Status"`
	Url       string `json:"Url"`
}

type MailjetEventCallbackURL struct {
	APIKeyID  int64  `json:"APIKeyID"`
	EventType string `json:"EventType"`
	IsBackup  bool   `json:"IsBackup"`
	Status    string `json:"Status"`
	Url       string `json:"Url"`
	Version   int    `json:"Version"`
	ID        int64  `json:"ID"`
}

// MailjetEvent is one webhook payload as sent by Mailjet.
// The raw document is kept so that type specific fields survive unchanged.
type MailjetEvent struct {
	raw  json.RawMessage
	data gjson.Result
}

func NewMailjetEvent(raw []byte) MailjetEvent {
	var e MailjetEvent
	e.raw = append(json.RawMessage(nil), raw...)
	e.data = gjson.ParseBytes(e.raw)
	return e
}

func (e *MailjetEvent) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("invalid mailjet event payload")
	}
	*e = NewMailjetEvent(b)
	return nil
}

func (e MailjetEvent) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

func (e MailjetEvent) IsObject() bool {
	return e.data.IsObject()
}

func (e MailjetEvent) Type() string {
	return e.data.Get("event").String()
}

func (e MailjetEvent) Time() int64 {
	return e.data.Get("time").Int()
}

func (e MailjetEvent) Email() string {
	return e.data.Get("email").String()
}

func (e MailjetEvent) ContactID() int64 {
	return e.data.Get("mj_contact_id").Int()
}

// IP returns the client address of open and click events.
func (e MailjetEvent) IP() (string, bool) {
	r := e.data.Get("ip")
	return r.String(), r.Exists() && r.Value() != nil && r.String() != ""
}

// ForEachField calls fn for every top level field in payload order.
func (e MailjetEvent) ForEachField(fn func(key string, value gjson.Result) bool) {
	e.data.ForEach(func(key, value gjson.Result) bool {
		return fn(key.String(), value)
	})
}

// ParseMailjetEvents accepts a single event object or an array of events.
func ParseMailjetEvents(payload []byte) ([]MailjetEvent, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("failed to parse mailjet event payload: invalid json")
	}
	parsed := gjson.ParseBytes(payload)
	var result []MailjetEvent
	switch {
	case parsed.IsArray():
		// records that are not objects are kept and rejected one by one when dispatched
		for _, item := range parsed.Array() {
			result = append(result, NewMailjetEvent([]byte(item.Raw)))
		}
	case parsed.IsObject():
		result = append(result, NewMailjetEvent([]byte(parsed.Raw)))
	default:
		return nil, fmt.Errorf("failed to parse mailjet event payload: expected object or array but have %s", parsed.Type)
	}
	return result, nil
}
