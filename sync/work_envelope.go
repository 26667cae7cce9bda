package sync

import "github.com/google/uuid"

type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationSkip   Operation = "skip"
)

// WorkEnvelope carries one user update message through the outgoing pipeline.
type WorkEnvelope struct {
	ID      string
	Message HullUserUpdateMessage

	Contact    *MailjetContact
	Data       *MailjetContactData
	Recipients []MailjetListRecipient

	ContactCreate *MailjetContactCreate
	ContactData   *MailjetContactDataUpdate
	ListActions   *MailjetContactListCrud

	Operation Operation
	Reason    string // set when Operation is OperationSkip
}

func newWorkEnvelope(message HullUserUpdateMessage, operation Operation, reason string) WorkEnvelope {
	return WorkEnvelope{
		ID:        uuid.NewString(),
		Message:   message,
		Operation: operation,
		Reason:    reason,
	}
}

// Claims identifies the Hull user of the envelope, preferring the resolved contact.
func (e WorkEnvelope) Claims(mapper Mapper) HullUserClaims {
	if e.Contact != nil {
		return mapper.MapContactToHullUserClaims(*e.Contact, &e.Message.User)
	}
	email, _ := e.Message.User.Email()
	return HullUserClaims{
		ID:         e.Message.User.ID(),
		ExternalID: e.Message.User.ExternalID(),
		Email:      email,
	}
}
