// go test github.com/homemade/mjsync/sync -v
package sync

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

const testContactResponse = `{
	"Count": 1,
	"Data": [{
		"CreatedAt": "2019-06-25T10:52:30Z",
		"DeliveredCount": 0,
		"Email": "jane@example.com",
		"ExclusionFromCampaignsUpdatedAt": "",
		"ID": 1536839,
		"IsExcludedFromCampaigns": false,
		"IsOptInPending": false,
		"IsSpamComplaining": false,
		"LastActivityAt": "",
		"LastUpdateAt": "",
		"Name": "Jane Doe"
	}],
	"Total": 1
}`

func TestMailjetClientGetContact(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"GET /contact/jane@example.com": {Body: testContactResponse},
	})
	result := stub.client().GetContact(context.Background(), "jane@example.com")
	if !result.IsSuccess() {
		t.Fatalf("Expected success but have: %v", result.GetError())
	}
	contact, ok := result.Data.First()
	if !ok {
		t.Fatalf("Expected exactly one contact but have: %+v", result.Data)
	}
	if contact.ID != 1536839 || contact.Name != "Jane Doe" {
		t.Errorf("Expected contact 1536839 Jane Doe but have: %d %s", contact.ID, contact.Name)
	}
	if result.Record == nil || *result.Record != "jane@example.com" {
		t.Errorf("Expected the looked up email as record but have: %v", result.Record)
	}
	if result.Method != APIMethodQuery {
		t.Errorf("Expected method: query but have: %s", result.Method)
	}
	if !strings.HasSuffix(result.Endpoint, "/contact/jane@example.com") {
		t.Errorf("Expected endpoint to address the contact but have: %s", result.Endpoint)
	}
}

func TestMailjetClientNotFound(t *testing.T) {
	stub := newMailjetStub(t, nil)
	result := stub.client().GetContact(context.Background(), "nobody@example.com")
	if result.IsSuccess() {
		t.Fatal("Expected a missing contact to fail")
	}
	if len(result.Error) != 3 {
		t.Fatalf("Expected 3 error fragments but have: %q", result.Error)
	}
	if result.Error[1] != "Not Found" {
		t.Errorf("Expected status text: Not Found but have: %s", result.Error[1])
	}
	if result.Error[2] != "Object not found" {
		t.Errorf("Expected mailjet error message: Object not found but have: %s", result.Error[2])
	}
	if result.Record != nil {
		t.Errorf("Expected no record on failure but have: %v", *result.Record)
	}
	if !json.Valid(result.ErrorData) {
		t.Errorf("Expected the error body as error data but have: %s", result.ErrorData)
	}
	if result.GetError() == nil {
		t.Error("Expected a failed result to return an error")
	}
}

func TestMailjetClientBasicAuth(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"GET /contact/jane@example.com": {Body: testContactResponse},
	})
	client := stub.client()
	client.APISecretKey = "wrong"
	result := client.GetContact(context.Background(), "jane@example.com")
	if result.IsSuccess() {
		t.Fatal("Expected wrong credentials to fail")
	}
	if len(result.Error) < 2 || result.Error[1] != "Unauthorized" {
		t.Errorf("Expected status text: Unauthorized but have: %q", result.Error)
	}
}

func TestMailjetClientCreateContact(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"POST /contact": {Status: 201, Body: testContactResponse},
	})
	create := MailjetContactCreate{Email: "jane@example.com", Name: "Jane Doe"}
	result := stub.client().CreateContact(context.Background(), create)
	if !result.IsSuccess() {
		t.Fatalf("Expected success but have: %v", result.GetError())
	}
	if result.Record == nil || *result.Record != create {
		t.Errorf("Expected the create payload as record but have: %v", result.Record)
	}
	expected := `{"Email":"jane@example.com","IsExcludedFromCampaigns":false,"Name":"Jane Doe"}`
	if len(stub.calls) != 1 || stub.calls[0].Body != expected {
		t.Errorf("Expected request body: %s but have: %+v", expected, stub.calls)
	}
}

func TestMailjetClientQueryParameters(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"GET /listrecipient": {Body: `{"Count":0,"Data":[],"Total":0}`},
	})
	client := stub.client()
	client.GetListRecipients(context.Background(), 1536839, DefaultPage)
	client.GetListRecipientsByEmail(context.Background(), "jane+news@example.com", Page{Offset: 10, Limit: 5})

	if len(stub.calls) != 2 {
		t.Fatalf("Expected 2 calls but have: %d", len(stub.calls))
	}
	if stub.calls[0].Query != "Limit=1000&Offset=0&Contact=1536839" {
		t.Errorf("Expected recipients query by contact but have: %s", stub.calls[0].Query)
	}
	if stub.calls[1].Query != "Limit=5&Offset=10&ContactEmail=jane%2Bnews%40example.com" {
		t.Errorf("Expected recipients query by escaped email but have: %s", stub.calls[1].Query)
	}
}

func TestMailjetClientDeletes(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"DELETE /listrecipient/1443964": {Status: 204},
		"DELETE /eventcallbackurl/2088": {Status: 204},
	})
	client := stub.client()

	recipient := client.DeleteListRecipient(context.Background(), 1443964)
	if !recipient.IsSuccess() {
		t.Fatalf("Expected success but have: %v", recipient.GetError())
	}
	if recipient.Data.Message != "Recipient with id '1443964' deleted." {
		t.Errorf("Expected a deleted message but have: %s", recipient.Data.Message)
	}

	callback := client.DeleteEventCallback(context.Background(), 2088)
	if !callback.IsSuccess() || !callback.Data {
		t.Errorf("Expected the callback deletion to succeed with true but have: %t %t", callback.Success, callback.Data)
	}

	missing := client.DeleteEventCallback(context.Background(), 1)
	if missing.IsSuccess() || missing.Data {
		t.Errorf("Expected a missing callback deletion to fail with false but have: %t %t", missing.Success, missing.Data)
	}
}

func TestMailjetClientManageContactListSubscriptions(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"POST /contact/1536839/managecontactslists": {Status: 201, Body: `{"Count":1,"Data":[{"ContactsLists":[{"ListID":1115,"Action":"addnoforce"}]}],"Total":1}`},
	})
	actions := MailjetContactListCrud{ContactsLists: []MailjetContactListAction{{ListID: 1115, Action: MailjetListActionAddNoForce}}}
	result := stub.client().ManageContactListSubscriptions(context.Background(), 1536839, actions)
	if !result.IsSuccess() {
		t.Fatalf("Expected success but have: %v", result.GetError())
	}
	expected := `{"ContactsLists":[{"ListID":1115,"Action":"addnoforce"}]}`
	if stub.calls[0].Body != expected {
		t.Errorf("Expected request body: %s but have: %s", expected, stub.calls[0].Body)
	}
}

func TestMailjetClientContactQueries(t *testing.T) {
	stub := newMailjetStub(t, map[string]stubResponse{
		"GET /contact":                          {Body: testContactResponse},
		"GET /contact/1536839/getcontactslists": {Body: `{"Count":1,"Data":[{"IsActive":true,"IsUnsub":false,"ListID":1115,"SubscribedAt":"2019-06-25T10:52:30Z"}],"Total":1}`},
	})
	client := stub.client()

	contacts := client.GetContacts(context.Background(), Page{Offset: 20, Limit: 10})
	if !contacts.IsSuccess() || len(contacts.Data.Data) != 1 {
		t.Errorf("Expected one contact but have: %+v", contacts)
	}
	if stub.calls[0].Query != "Limit=10&Offset=20" {
		t.Errorf("Expected a paged contact query but have: %s", stub.calls[0].Query)
	}

	subscriptions := client.GetContactListSubscriptions(context.Background(), "1536839")
	membership, ok := subscriptions.Data.First()
	if !subscriptions.IsSuccess() || !ok || membership.ListID != 1115 || !membership.IsActive {
		t.Errorf("Expected an active membership of list 1115 but have: %+v", subscriptions)
	}
}
