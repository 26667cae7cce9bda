package sync

import (
	"context"
	"errors"
	"fmt"
)

// MetadataPageSize is the page size used when listing Mailjet metadata.
const MetadataPageSize = 100

const (
	MetadataKindContactProperties = "contactproperties"
	MetadataKindContactLists      = "contactlists"
)

// FieldOption is one entry of a settings dropdown.
type FieldOption struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// FieldsSchema is served to the connector settings UI.
type FieldsSchema struct {
	OK      bool          `json:"ok"`
	Error   *string       `json:"error"`
	Options []FieldOption `json:"options"`
}

// fetchAllPages calls fetch with growing offsets until a page is shorter than the limit.
func fetchAllPages[T any](ctx context.Context, sink *Sink, fetch func(context.Context, Page) APIResult[MailjetPagedResult[T], Page]) ([]T, error) {
	result := []T{}
	page := Page{Offset: 0, Limit: MetadataPageSize}
	for {
		sink.IncrementAPICalls()
		apiResult := fetch(ctx, page)
		if !apiResult.IsSuccess() {
			sink.MetadataError(apiResult)
			return result, APICommunicationError{Message: ErrorMetadataFailedToRetrieveList, APIResult: apiResult}
		}
		result = append(result, apiResult.Data.Data...)
		if apiResult.Data.Count < page.Limit {
			return result, nil
		}
		page.Offset += page.Limit
	}
}

func (a *SyncAgent) GetMetadataContactProperties(ctx context.Context) ([]MailjetContactProperty, error) {
	return fetchAllPages(ctx, a.sink, a.mailjet.GetMetadataContactProperties)
}

func (a *SyncAgent) GetContactLists(ctx context.Context) ([]MailjetContactList, error) {
	return fetchAllPages(ctx, a.sink, a.mailjet.GetContactLists)
}

// Metadata returns the dropdown options of the given kind.
func (a *SyncAgent) Metadata(ctx context.Context, kind string) FieldsSchema {
	result := FieldsSchema{Options: []FieldOption{}}
	fail := func(err error) FieldsSchema {
		msg := err.Error()
		result.OK = false
		result.Error = &msg
		return result
	}
	if !a.IsAuthConfigured() && (kind == MetadataKindContactProperties || kind == MetadataKindContactLists) {
		switch {
		case a.settings == nil:
			return fail(errors.New(StatusNoPrivateSettings))
		case a.settings.APIKey == "":
			return fail(errors.New(StatusNoAuthNAPIKey))
		default:
			return fail(errors.New(StatusNoAuthNAPISecretKey))
		}
	}

	switch kind {
	case MetadataKindContactProperties:
		properties, err := a.GetMetadataContactProperties(ctx)
		if err != nil {
			return fail(err)
		}
		for _, p := range properties {
			result.Options = append(result.Options, FieldOption{Value: p.Name, Label: p.Name})
		}
		result.Options = append(result.Options,
			FieldOption{Value: "Name", Label: MailjetAttributeDefaultName},
			FieldOption{Value: "IsExcludedFromCampaigns", Label: MailjetAttributeDefaultIsExcludedFromCampaigns},
		)
		result.OK = true
	case MetadataKindContactLists:
		lists, err := a.GetContactLists(ctx)
		if err != nil {
			return fail(err)
		}
		for _, l := range lists {
			result.Options = append(result.Options, FieldOption{Value: l.ID, Label: l.Name})
		}
		result.OK = true
	default:
		return fail(fmt.Errorf("Unrecognized type: %q", kind))
	}
	return result
}
