package sync

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// HullEventTimeFormat is ISO-8601 with millisecond precision.
const HullEventTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Mapper translates between Hull users and Mailjet objects for one connector's settings.
type Mapper struct {
	settings Settings
	group    string
}

func NewMapper(settings Settings) Mapper {
	group := "mailjet"
	if slug, ok := Slugify(settings.SubaccountSlug); ok {
		group = fmt.Sprintf("mailjet_%s", slug)
	}
	mappings := make([]AttributeMapping, 0, len(settings.ContactAttributesOutbound))
	for _, mapping := range settings.ContactAttributesOutbound {
		mappings = append(mappings, mapping.Trimmed())
	}
	settings.ContactAttributesOutbound = mappings
	return Mapper{settings: settings, group: group}
}

// AttributeGroup is the prefix of every Hull attribute written by this connector.
func (m Mapper) AttributeGroup() string {
	return m.group
}

func (m Mapper) attributeName(field string) string {
	return fmt.Sprintf("%s/%s", m.group, strcase.ToSnake(field))
}

// IsReservedServiceField reports whether name is set on the contact itself instead of as contact data.
func IsReservedServiceField(name string) bool {
	switch name {
	case MailjetAttributeDefaultName, MailjetAttributeDefaultNameValue,
		MailjetAttributeDefaultIsExcludedFromCampaigns, MailjetAttributeDefaultIsExcludedFromCampaignsValue:
		return true
	}
	return false
}

// findMappedHullField returns the Hull path mapped to one of the given service fields.
func (m Mapper) findMappedHullField(serviceFieldNames ...string) (string, bool) {
	for _, mapping := range m.settings.ContactAttributesOutbound {
		hull := strings.TrimSpace(mapping.HullFieldName)
		if hull == "" {
			continue
		}
		for _, name := range serviceFieldNames {
			if mapping.ServiceFieldName == name {
				return hull, true
			}
		}
	}
	return "", false
}

func (m Mapper) MapHullUserToContactCreate(user HullUser) MailjetContactCreate {
	namePath := "name"
	if p, ok := m.findMappedHullField(MailjetAttributeDefaultName, MailjetAttributeDefaultNameValue); ok {
		namePath = p
	}
	exclusionPath := fmt.Sprintf("%s.%s", m.group, strcase.ToSnake("IsExcludedFromCampaigns"))
	if p, ok := m.findMappedHullField(MailjetAttributeDefaultIsExcludedFromCampaigns, MailjetAttributeDefaultIsExcludedFromCampaignsValue); ok {
		exclusionPath = p
	}

	email, _ := user.Email()
	name, _ := user.StringForPath(namePath)
	excluded, _ := user.BoolForPath(exclusionPath)
	return MailjetContactCreate{
		Email:                   email,
		IsExcludedFromCampaigns: excluded,
		Name:                    name,
	}
}

// MapHullUserToContactData returns the custom contact data of the user.
// Mappings of reserved fields and attributes without a value are left out.
func (m Mapper) MapHullUserToContactData(user HullUser) MailjetContactDataUpdate {
	result := MailjetContactDataUpdate{Data: []MailjetContactDataEntry{}}
	for _, mapping := range m.settings.ContactAttributesOutbound {
		if !mapping.IsValid() || IsReservedServiceField(mapping.ServiceFieldName) {
			continue
		}
		path := strings.TrimSpace(mapping.HullFieldName)
		// a value escaped in backticks is a static string rather than a path
		if len(path) >= 2 && path[0] == '`' && path[len(path)-1] == '`' {
			result.Data = append(result.Data, MailjetContactDataEntry{
				Name:  mapping.ServiceFieldName,
				Value: path[1 : len(path)-1],
			})
			continue
		}
		v, ok := user.ValueForPath(path)
		if !ok {
			continue
		}
		result.Data = append(result.Data, MailjetContactDataEntry{
			Name:  mapping.ServiceFieldName,
			Value: v,
		})
	}
	return result
}

// MapSegmentsToContactListActions diffs the lists the user should be on against the
// current recipients. Applying the result twice has no further effect.
func (m Mapper) MapSegmentsToContactListActions(segments []HullSegment, recipients []MailjetListRecipient) MailjetContactListCrud {
	result := MailjetContactListCrud{ContactsLists: []MailjetContactListAction{}}

	var desired []int64
	isDesired := map[int64]bool{}
	for _, segment := range segments {
		for _, mapping := range m.settings.ContactSynchronizedSegments {
			if mapping.HullSegmentID != segment.ID || isDesired[mapping.ServiceListID] {
				continue
			}
			isDesired[mapping.ServiceListID] = true
			desired = append(desired, mapping.ServiceListID)
		}
	}

	current := map[int64]bool{}
	for _, r := range recipients {
		current[r.ListID] = true
	}

	for _, listID := range desired {
		if !current[listID] {
			result.ContactsLists = append(result.ContactsLists, MailjetContactListAction{
				ListID: listID,
				Action: MailjetListActionAddNoForce,
			})
		}
	}
	for _, r := range recipients {
		if !isDesired[r.ListID] && !r.IsUnsubscribed {
			result.ContactsLists = append(result.ContactsLists, MailjetContactListAction{
				ListID: r.ListID,
				Action: MailjetListActionUnsub,
			})
		}
	}
	return result
}

// MapContactToHullUserClaims identifies the Hull user of a contact. Identifiers of
// the Hull user, when known, take precedence.
func (m Mapper) MapContactToHullUserClaims(contact MailjetContact, user *HullUser) HullUserClaims {
	result := HullUserClaims{
		Email:       contact.Email,
		AnonymousID: fmt.Sprintf("%s:%d", m.group, contact.ID),
	}
	if user != nil {
		if id := user.ID(); id != "" {
			result.ID = id
		}
		if externalID := user.ExternalID(); externalID != "" {
			result.ExternalID = externalID
		}
		if email, ok := user.Email(); ok {
			result.Email = email
		}
	}
	return result
}

func (m Mapper) MapMailjetObjectsToHullAttributes(contact MailjetContact, data *MailjetContactData, recipients []MailjetListRecipient) HullAttributes {
	var result HullAttributes
	result.Set("name", HullAttributeValue{Value: contact.Name, Operation: "setIfNull"})
	for _, field := range contact.Fields() {
		result.Set(m.attributeName(field.Name), field.Value)
	}
	if data != nil {
		for _, entry := range data.Data {
			result.Set(m.attributeName(entry.Name), entry.Value)
		}
	}
	if recipients != nil {
		result.Set(m.attributeName("ListRecipients"), recipients)
	}
	return result
}

func (m Mapper) MapEventToHullUserClaims(event MailjetEvent) HullUserClaims {
	return HullUserClaims{
		Email:       event.Email(),
		AnonymousID: fmt.Sprintf("%s:%d", m.group, event.ContactID()),
	}
}

// MapEventToHullEvent returns false for event types without a Hull event name.
func (m Mapper) MapEventToHullEvent(event MailjetEvent) (HullEvent, bool, error) {
	var result HullEvent
	name, ok := MailjetEventMapping[event.Type()]
	if !ok {
		return result, false, nil
	}

	properties := []byte("{}")
	var err error
	event.ForEachField(func(key string, value gjson.Result) bool {
		name := strcase.ToSnake(key)
		if key == "ip" || name == "" {
			return true
		}
		// keys are escaped so that dots in payload keys do not create nested objects
		properties, err = sjson.SetRawBytes(properties, escapeSJSONKey(name), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		return result, true, fmt.Errorf("failed to build properties of %s event %w", event.Type(), err)
	}

	var ip interface{} = 0
	if s, ok := event.IP(); ok {
		ip = s
	}

	result = HullEvent{
		Event:      name,
		CreatedAt:  time.Unix(event.Time(), 0).UTC().Format(HullEventTimeFormat),
		Properties: json.RawMessage(properties),
		Context:    HullEventContext{IP: ip},
	}
	return result, true, nil
}

func escapeSJSONKey(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`, ":", `\:`)
	return r.Replace(key)
}
