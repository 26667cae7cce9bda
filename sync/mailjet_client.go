package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// MailjetClient calls the Mailjet REST API on behalf of one connector.
// Remote failures never surface as Go errors, every call returns an APIResult.
type MailjetClient struct {
	APIKey       string
	APISecretKey string
	BaseURL      string       // defaults to MailjetAPIBaseURL
	HTTPClient   *http.Client // defaults to a client using HTTPRequestTimeout
	RecordDir    string       // when set, requests and responses are recorded to this directory
}

func NewMailjetClient(settings Settings) MailjetClient {
	return MailjetClient{
		APIKey:       settings.APIKey,
		APISecretKey: settings.APISecretKey,
	}
}

func (c MailjetClient) baseURL() string {
	if c.BaseURL == "" {
		return MailjetAPIBaseURL
	}
	return strings.TrimSuffix(c.BaseURL, "/")
}

func (c MailjetClient) endpoint(format string, args ...any) string {
	return c.baseURL() + fmt.Sprintf(format, args...)
}

// MailjetAPIBuilder returns a new requests.Builder for a full endpoint URL.
func (c MailjetClient) MailjetAPIBuilder(endpoint string) *requests.Builder {
	client := c.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	result := requests.
		URL(endpoint).
		Client(client).
		BasicAuth(c.APIKey, c.APISecretKey)
	if c.RecordDir != "" {
		result = result.Transport(requests.Record(nil, c.RecordDir))
	}
	return result
}

func httpMethod(method APIMethod) string {
	switch method {
	case APIMethodInsert:
		return http.MethodPost
	case APIMethodUpdate:
		return http.MethodPut
	case APIMethodDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// send performs the request and returns the response body. On failure it returns the
// HTTP status (0 when no response was received) and the raw error body.
func (c MailjetClient) send(ctx context.Context, method APIMethod, endpoint string, body any) (response []byte, status int, errorBody []byte, err error) {
	var buf, errBuf bytes.Buffer
	rb := c.MailjetAPIBuilder(endpoint).
		Method(httpMethod(method)).
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			return nil
		}).
		AddValidator(requests.ValidatorHandler(requests.DefaultValidator, requests.ToBytesBuffer(&errBuf))).
		ToBytesBuffer(&buf)
	if body != nil {
		rb = rb.BodyJSON(body)
	}
	err = rb.Fetch(ctx)
	if err != nil {
		return nil, status, errBuf.Bytes(), err
	}
	return buf.Bytes(), status, nil, nil
}

func failedResult[T any, U any](result APIResult[T, U], err error, status int, errorBody []byte) APIResult[T, U] {
	result.Success = false
	result.Error = errorFragments(err, status, errorBody)
	if len(errorBody) > 0 && gjson.ValidBytes(errorBody) {
		result.ErrorData = append(json.RawMessage(nil), errorBody...)
	}
	return result
}

// execute runs a query, insert or update call and decodes the response into T.
// For inserts and updates the record is sent as the JSON request body.
func execute[T any, U any](ctx context.Context, c MailjetClient, method APIMethod, endpoint string, record *U) APIResult[T, U] {
	result := APIResult[T, U]{
		Endpoint: endpoint,
		Method:   method,
	}
	var body any
	if record != nil && (method == APIMethodInsert || method == APIMethodUpdate) {
		body = record
	}
	response, status, errorBody, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return failedResult(result, err, status, errorBody)
	}
	if len(bytes.TrimSpace(response)) > 0 {
		if err = json.Unmarshal(response, &result.Data); err != nil {
			return failedResult(result, fmt.Errorf("failed to decode mailjet response %w", err), 0, nil)
		}
	}
	result.Record = record
	result.Success = true
	return result
}

// executeDelete runs a delete call. Mailjet answers deletes with an empty body
// so data is supplied by the caller and returned on success.
func executeDelete[T any, U any](ctx context.Context, c MailjetClient, endpoint string, record *U, data T) APIResult[T, U] {
	result := APIResult[T, U]{
		Endpoint: endpoint,
		Method:   APIMethodDelete,
	}
	_, status, errorBody, err := c.send(ctx, APIMethodDelete, endpoint, nil)
	if err != nil {
		return failedResult(result, err, status, errorBody)
	}
	result.Data = data
	result.Record = record
	result.Success = true
	return result
}

// GetContact looks a contact up by id or email.
func (c MailjetClient) GetContact(ctx context.Context, idOrEmail string) APIResult[MailjetPagedResult[MailjetContact], string] {
	return execute[MailjetPagedResult[MailjetContact]](ctx, c, APIMethodQuery,
		c.endpoint("/contact/%s", url.PathEscape(idOrEmail)), &idOrEmail)
}

func (c MailjetClient) GetContacts(ctx context.Context, page Page) APIResult[MailjetPagedResult[MailjetContact], Page] {
	return execute[MailjetPagedResult[MailjetContact]](ctx, c, APIMethodQuery,
		c.endpoint("/contact?Limit=%d&Offset=%d", page.Limit, page.Offset), &page)
}

func (c MailjetClient) CreateContact(ctx context.Context, contact MailjetContactCreate) APIResult[MailjetPagedResult[MailjetContact], MailjetContactCreate] {
	return execute[MailjetPagedResult[MailjetContact]](ctx, c, APIMethodInsert,
		c.endpoint("/contact"), &contact)
}

func (c MailjetClient) UpdateContact(ctx context.Context, idOrEmail string, update MailjetContactUpdate) APIResult[MailjetPagedResult[MailjetContact], MailjetContactUpdate] {
	return execute[MailjetPagedResult[MailjetContact]](ctx, c, APIMethodUpdate,
		c.endpoint("/contact/%s", url.PathEscape(idOrEmail)), &update)
}

func (c MailjetClient) GetContactListSubscriptions(ctx context.Context, idOrEmail string) APIResult[MailjetPagedResult[MailjetContactListMembership], string] {
	return execute[MailjetPagedResult[MailjetContactListMembership]](ctx, c, APIMethodQuery,
		c.endpoint("/contact/%s/getcontactslists", url.PathEscape(idOrEmail)), &idOrEmail)
}

func (c MailjetClient) GetListRecipients(ctx context.Context, contactID int64, page Page) APIResult[MailjetPagedResult[MailjetListRecipient], int64] {
	return execute[MailjetPagedResult[MailjetListRecipient]](ctx, c, APIMethodQuery,
		c.endpoint("/listrecipient?Limit=%d&Offset=%d&Contact=%d", page.Limit, page.Offset, contactID), &contactID)
}

func (c MailjetClient) GetListRecipientsByEmail(ctx context.Context, email string, page Page) APIResult[MailjetPagedResult[MailjetListRecipient], string] {
	return execute[MailjetPagedResult[MailjetListRecipient]](ctx, c, APIMethodQuery,
		c.endpoint("/listrecipient?Limit=%d&Offset=%d&ContactEmail=%s", page.Limit, page.Offset, url.QueryEscape(email)), &email)
}

func (c MailjetClient) DeleteListRecipient(ctx context.Context, id int64) APIResult[MailjetMessage, int64] {
	return executeDelete(ctx, c, c.endpoint("/listrecipient/%d", id), &id,
		MailjetMessage{Message: fmt.Sprintf("Recipient with id '%d' deleted.", id)})
}

func (c MailjetClient) ManageContactListSubscriptions(ctx context.Context, contactID int64, actions MailjetContactListCrud) APIResult[MailjetPagedResult[MailjetContactListCrud], MailjetContactListCrud] {
	return execute[MailjetPagedResult[MailjetContactListCrud]](ctx, c, APIMethodInsert,
		c.endpoint("/contact/%d/managecontactslists", contactID), &actions)
}

func (c MailjetClient) GetContactLists(ctx context.Context, page Page) APIResult[MailjetPagedResult[MailjetContactList], Page] {
	return execute[MailjetPagedResult[MailjetContactList]](ctx, c, APIMethodQuery,
		c.endpoint("/contactslist?Limit=%d&Offset=%d", page.Limit, page.Offset), &page)
}

func (c MailjetClient) GetContactData(ctx context.Context, contactID int64) APIResult[MailjetPagedResult[MailjetContactData], int64] {
	return execute[MailjetPagedResult[MailjetContactData]](ctx, c, APIMethodQuery,
		c.endpoint("/contactdata/%d", contactID), &contactID)
}

func (c MailjetClient) UpdateContactData(ctx context.Context, contactID int64, data MailjetContactDataUpdate) APIResult[MailjetPagedResult[MailjetContactData], MailjetContactDataUpdate] {
	return execute[MailjetPagedResult[MailjetContactData]](ctx, c, APIMethodUpdate,
		c.endpoint("/contactdata/%d", contactID), &data)
}

func (c MailjetClient) GetMetadataContactProperties(ctx context.Context, page Page) APIResult[MailjetPagedResult[MailjetContactProperty], Page] {
	return execute[MailjetPagedResult[MailjetContactProperty]](ctx, c, APIMethodQuery,
		c.endpoint("/contactmetadata?Limit=%d&Offset=%d", page.Limit, page.Offset), &page)
}

func (c MailjetClient) CreateEventCallback(ctx context.Context, callback MailjetEventCallbackURLCreate) APIResult[MailjetPagedResult[MailjetEventCallbackURL], MailjetEventCallbackURLCreate] {
	return execute[MailjetPagedResult[MailjetEventCallbackURL]](ctx, c, APIMethodInsert,
		c.endpoint("/eventcallbackurl"), &callback)
}

func (c MailjetClient) ListEventCallbacks(ctx context.Context, page Page) APIResult[MailjetPagedResult[MailjetEventCallbackURL], Page] {
	return execute[MailjetPagedResult[MailjetEventCallbackURL]](ctx, c, APIMethodQuery,
		c.endpoint("/eventcallbackurl?Limit=%d&Offset=%d", page.Limit, page.Offset), &page)
}

func (c MailjetClient) DeleteEventCallback(ctx context.Context, id int64) APIResult[bool, int64] {
	return executeDelete(ctx, c, c.endpoint("/eventcallbackurl/%d", id), &id, true)
}
