package sync

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// WebhookPlan lists the registrations to delete and create in one reconciliation cycle.
type WebhookPlan struct {
	Creates []MailjetEventCallbackURLCreate
	Deletes []MailjetEventCallbackURL
}

// WebhookResult is the outcome of one reconciliation cycle.
type WebhookResult struct {
	Plan    WebhookPlan
	Deleted []int64
	Created []string // event types
	Err     error
}

// WebhookReconciler converges the Mailjet event callback registrations of a connector.
type WebhookReconciler struct {
	mailjet MailjetClient
	sink    *Sink
}

func NewWebhookReconciler(mailjet MailjetClient, sink *Sink) WebhookReconciler {
	return WebhookReconciler{mailjet: mailjet, sink: sink}
}

// callbackMatch classifies a registered URL against the desired callback URL.
type callbackMatch int

const (
	callbackUnrelated callbackMatch = iota
	callbackExact
	callbackStale
)

func matchCallbackURL(desired *url.URL, registered string) callbackMatch {
	u, err := url.Parse(registered)
	if err != nil || u.User == nil || desired.User == nil {
		return callbackUnrelated
	}
	password, _ := u.User.Password()
	desiredPassword, _ := desired.User.Password()
	query, desiredQuery := u.Query(), desired.Query()
	if u.User.Username() != desired.User.Username() || password != desiredPassword ||
		!strings.EqualFold(query.Get("org"), desiredQuery.Get("org")) {
		return callbackUnrelated
	}
	// org compares case-insensitively, every other parameter must be identical
	query.Del("org")
	desiredQuery.Del("org")
	if strings.EqualFold(u.Scheme, desired.Scheme) &&
		strings.EqualFold(u.Host, desired.Host) &&
		u.Path == desired.Path &&
		query.Encode() == desiredQuery.Encode() {
		return callbackExact
	}
	return callbackStale
}

// PlanWebhooks diffs the registered callbacks against the desired event types.
// Stale registrations, those with our credentials and organization but another
// URL, are always deleted and come first.
func PlanWebhooks(callbackURL *url.URL, desiredEventTypes []string, registered []MailjetEventCallbackURL) WebhookPlan {
	plan := WebhookPlan{
		Creates: []MailjetEventCallbackURLCreate{},
		Deletes: []MailjetEventCallbackURL{},
	}
	var exact []MailjetEventCallbackURL
	for _, ec := range registered {
		switch matchCallbackURL(callbackURL, ec.Url) {
		case callbackExact:
			exact = append(exact, ec)
		case callbackStale:
			plan.Deletes = append(plan.Deletes, ec)
		}
	}

	desired := map[string]bool{}
	for _, et := range desiredEventTypes {
		desired[et] = true
	}
	registeredTypes := map[string]bool{}
	for _, ec := range exact {
		registeredTypes[ec.EventType] = true
	}

	for _, et := range desiredEventTypes {
		if registeredTypes[et] {
			continue
		}
		registeredTypes[et] = true
		plan.Creates = append(plan.Creates, MailjetEventCallbackURLCreate{
			EventType: et,
			IsBackup:  false,
			Status:    "alive",
			Url:       callbackURL.String(),
		})
	}
	for _, ec := range exact {
		if !desired[ec.EventType] {
			plan.Deletes = append(plan.Deletes, ec)
		}
	}
	return plan
}

func (r WebhookReconciler) listRegistered(ctx context.Context) ([]MailjetEventCallbackURL, error) {
	r.sink.IncrementAPICalls()
	listResult := r.mailjet.ListEventCallbacks(ctx, DefaultPage)
	if !listResult.IsSuccess() {
		err := APICommunicationError{Message: ErrorWebhookFailedToRetrieveList, APIResult: listResult}
		r.sink.WebhookCommunicationError(err)
		return nil, err
	}
	return listResult.Data.Data, nil
}

func (r WebhookReconciler) delete(ctx context.Context, ec MailjetEventCallbackURL) bool {
	r.sink.IncrementAPICalls()
	deleteResult := r.mailjet.DeleteEventCallback(ctx, ec.ID)
	r.sink.WebhookAPIResult(ErrorWebhookFailedToDelete, deleteResult)
	return deleteResult.IsSuccess()
}

// Ensure converges the registrations for callbackURL to desiredEventTypes.
// Deletes run first and one at a time. No create is issued when a delete failed.
func (r WebhookReconciler) Ensure(ctx context.Context, callbackURL *url.URL, desiredEventTypes []string) WebhookResult {
	var result WebhookResult
	registered, err := r.listRegistered(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Plan = PlanWebhooks(callbackURL, desiredEventTypes, registered)

	var failed int
	for _, ec := range result.Plan.Deletes {
		if r.delete(ctx, ec) {
			result.Deleted = append(result.Deleted, ec.ID)
		} else {
			failed++
		}
	}
	if failed > 0 {
		result.Err = fmt.Errorf("failed to delete %d event callback(s), skipped %d create(s)", failed, len(result.Plan.Creates))
		return result
	}

	for _, ec := range result.Plan.Creates {
		r.sink.IncrementAPICalls()
		createResult := r.mailjet.CreateEventCallback(ctx, ec)
		r.sink.WebhookAPIResult(ErrorWebhookFailedToCreate, createResult)
		if createResult.IsSuccess() {
			result.Created = append(result.Created, ec.EventType)
		} else if result.Err == nil {
			result.Err = createResult.GetError()
		}
	}
	return result
}

// Clear deletes every registration of this connector, exact and stale.
func (r WebhookReconciler) Clear(ctx context.Context, callbackURL *url.URL) WebhookResult {
	var result WebhookResult
	registered, err := r.listRegistered(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Plan.Creates = []MailjetEventCallbackURLCreate{}
	result.Plan.Deletes = []MailjetEventCallbackURL{}
	for _, ec := range registered {
		if matchCallbackURL(callbackURL, ec.Url) != callbackUnrelated {
			result.Plan.Deletes = append(result.Plan.Deletes, ec)
		}
	}
	var failed int
	for _, ec := range result.Plan.Deletes {
		if r.delete(ctx, ec) {
			result.Deleted = append(result.Deleted, ec.ID)
		} else {
			failed++
		}
	}
	if failed > 0 {
		result.Err = fmt.Errorf("failed to delete %d event callback(s)", failed)
	}
	return result
}
