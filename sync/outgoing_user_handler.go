package sync

import (
	"context"
	"fmt"
	"reflect"
)

// OutgoingResult is the outcome of processing one WorkEnvelope.
type OutgoingResult struct {
	Envelope  WorkEnvelope
	Published bool  // attributes were pushed back to Hull
	Err       error // an unexpected error aborted the envelope
}

// OutgoingUserHandler pushes one Hull user to Mailjet and publishes the resulting
// Mailjet state back to Hull.
type OutgoingUserHandler struct {
	hull    HullClient
	mailjet MailjetClient
	mapper  Mapper
	sink    *Sink
}

func NewOutgoingUserHandler(hull HullClient, mailjet MailjetClient, mapper Mapper, sink *Sink) OutgoingUserHandler {
	return OutgoingUserHandler{hull: hull, mailjet: mailjet, mapper: mapper, sink: sink}
}

// Process runs the pipeline for a single envelope. Errors and panics are
// recovered, logged and returned in the result.
func (h OutgoingUserHandler) Process(ctx context.Context, env WorkEnvelope) (result OutgoingResult) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			h.sink.OutgoingUnexpectedError(env.Claims(h.mapper), errorName(err), err)
			result = OutgoingResult{Envelope: env, Err: err}
		}
	}()

	if env.Operation == OperationSkip {
		h.sink.Skip(env.Claims(h.mapper), env.Reason)
		return OutgoingResult{Envelope: env}
	}

	published, err := h.process(ctx, &env)
	if err != nil {
		h.sink.OutgoingUnexpectedError(env.Claims(h.mapper), errorName(err), err)
	}
	return OutgoingResult{Envelope: env, Published: published, Err: err}
}

func (h OutgoingUserHandler) process(ctx context.Context, env *WorkEnvelope) (bool, error) {
	if err := h.resolve(ctx, env); err != nil {
		return false, err
	}
	h.mapHullObjects(env)

	mutated := false
	switch env.Operation {
	case OperationInsert:
		mutated = h.performInsert(ctx, env)
	case OperationUpdate:
		mutated = h.performUpdate(ctx, env)
	}
	if h.performUpdateContactData(ctx, env) {
		mutated = true
	}
	if h.performUpdateListSubscriptions(ctx, env) {
		mutated = true
	}

	if !mutated || env.Contact == nil {
		return false, nil
	}
	return true, h.performHullUpdate(ctx, env)
}

func (h OutgoingUserHandler) logAPIResult(env *WorkEnvelope, apiResult APIResultObject) {
	h.sink.IncrementAPICalls()
	h.sink.OutgoingAPIResult(env.Claims(h.mapper), apiResult)
}

func (h OutgoingUserHandler) resolve(ctx context.Context, env *WorkEnvelope) error {
	email, ok := env.Message.User.Email()
	if !ok {
		return fmt.Errorf("failed to resolve contact: user has no email")
	}
	contactResult := h.mailjet.GetContact(ctx, email)
	h.logAPIResult(env, contactResult)

	env.Contact = nil
	env.Recipients = nil
	if contactResult.IsSuccess() {
		if contact, found := contactResult.Data.First(); found {
			env.Contact = &contact
		}
	}
	if env.Contact == nil {
		env.Operation = OperationInsert
		return nil
	}

	env.Operation = OperationUpdate
	env.Recipients = h.fetchRecipients(ctx, env)
	return nil
}

func (h OutgoingUserHandler) fetchRecipients(ctx context.Context, env *WorkEnvelope) []MailjetListRecipient {
	recipientsResult := h.mailjet.GetListRecipients(ctx, env.Contact.ID, DefaultPage)
	h.logAPIResult(env, recipientsResult)
	if !recipientsResult.IsSuccess() {
		return nil
	}
	if recipientsResult.Data.Data == nil {
		return []MailjetListRecipient{}
	}
	return recipientsResult.Data.Data
}

func (h OutgoingUserHandler) mapHullObjects(env *WorkEnvelope) {
	contactCreate := h.mapper.MapHullUserToContactCreate(env.Message.User)
	contactData := h.mapper.MapHullUserToContactData(env.Message.User)
	listActions := h.mapper.MapSegmentsToContactListActions(env.Message.Segments, env.Recipients)
	env.ContactCreate = &contactCreate
	env.ContactData = &contactData
	env.ListActions = &listActions
}

func (h OutgoingUserHandler) performInsert(ctx context.Context, env *WorkEnvelope) bool {
	contactResult := h.mailjet.CreateContact(ctx, *env.ContactCreate)
	h.logAPIResult(env, contactResult)
	env.Contact = nil
	if contactResult.IsSuccess() {
		if contact, found := contactResult.Data.First(); found {
			env.Contact = &contact
		}
	}
	return true
}

func (h OutgoingUserHandler) performUpdate(ctx context.Context, env *WorkEnvelope) bool {
	if env.Contact == nil || !env.ContactCreate.DiffersFrom(*env.Contact) {
		return false
	}
	contactResult := h.mailjet.UpdateContact(ctx, env.ContactCreate.Email, env.ContactCreate.Update())
	h.logAPIResult(env, contactResult)
	env.Contact = nil
	if contactResult.IsSuccess() {
		if contact, found := contactResult.Data.First(); found {
			env.Contact = &contact
		}
	}
	return true
}

func (h OutgoingUserHandler) performUpdateContactData(ctx context.Context, env *WorkEnvelope) bool {
	if env.Contact == nil || env.ContactData == nil || len(env.ContactData.Data) == 0 {
		return false
	}
	dataResult := h.mailjet.UpdateContactData(ctx, env.Contact.ID, *env.ContactData)
	h.logAPIResult(env, dataResult)
	env.Data = nil
	if dataResult.IsSuccess() && len(dataResult.Data.Data) > 0 {
		data := dataResult.Data.Data[0]
		env.Data = &data
	}
	return true
}

func (h OutgoingUserHandler) performUpdateListSubscriptions(ctx context.Context, env *WorkEnvelope) bool {
	if env.Contact == nil || env.ListActions == nil || len(env.ListActions.ContactsLists) == 0 {
		return false
	}
	listsResult := h.mailjet.ManageContactListSubscriptions(ctx, env.Contact.ID, *env.ListActions)
	h.logAPIResult(env, listsResult)
	return true
}

// performHullUpdate re-reads contact data and recipients, since mutation responses
// are not complete, and writes the merged state to Hull.
func (h OutgoingUserHandler) performHullUpdate(ctx context.Context, env *WorkEnvelope) error {
	dataResult := h.mailjet.GetContactData(ctx, env.Contact.ID)
	h.logAPIResult(env, dataResult)
	env.Data = nil
	if dataResult.IsSuccess() && len(dataResult.Data.Data) > 0 {
		data := dataResult.Data.Data[0]
		env.Data = &data
	}
	env.Recipients = h.fetchRecipients(ctx, env)

	claims := h.mapper.MapContactToHullUserClaims(*env.Contact, &env.Message.User)
	attributes := h.mapper.MapMailjetObjectsToHullAttributes(*env.Contact, env.Data, env.Recipients)
	if err := h.hull.AsUser(claims).Traits(ctx, attributes); err != nil {
		return fmt.Errorf("failed to update hull user attributes %w", err)
	}
	return nil
}

func errorName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "Error"
	}
	return t.Name()
}
