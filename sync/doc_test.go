// go test github.com/homemade/mjsync/sync -v
package sync

import (
	"strings"
	"testing"
)

var testDocSettings Settings

func init() {
	testDocSettings = Settings{
		SubaccountSlug: "Marketing Germany",
		ContactSynchronizedSegments: []SegmentMapping{
			{HullSegmentID: "seg-2", ServiceListID: 1116},
			{HullSegmentID: "seg-1", ServiceListID: 1115},
		},
		ContactAttributesOutbound: []AttributeMapping{
			{HullFieldName: "phone|@e164:44", ServiceFieldName: "phone"},
			{HullFieldName: "address_country|@countryName", ServiceFieldName: "country"},
			{HullFieldName: "name", ServiceFieldName: MailjetAttributeDefaultName},
			{HullFieldName: "", ServiceFieldName: "age"},
		},
	}
}

func TestGenerateMappingDocumentation(t *testing.T) {
	doc := GenerateMappingDocumentation(testDocSettings)
	if doc.AttributeGroup != "mailjet_marketing_germany" {
		t.Errorf("Expected attribute group: mailjet_marketing_germany but have: %s", doc.AttributeGroup)
	}

	expected := []MappingDocRow{
		{Kind: "Attribute", ServiceName: MailjetAttributeDefaultName, Reserved: true, SourcePath: "name"},
		{Kind: "Attribute", ServiceName: "age", SourcePath: "(none)", Notes: "Skipped: incomplete mapping"},
		{Kind: "Attribute", ServiceName: "country", SourcePath: "address_country", Notes: "Uses @countryName modifier"},
		{Kind: "Attribute", ServiceName: "phone", SourcePath: "phone", Notes: "Formats phone as E.164 (default country code 44)"},
		{Kind: "List", ServiceName: "1115", SourcePath: "seg-1", Notes: "Subscribed with addnoforce, unsubscribed when leaving the segment"},
		{Kind: "List", ServiceName: "1116", SourcePath: "seg-2", Notes: "Subscribed with addnoforce, unsubscribed when leaving the segment"},
	}
	if len(doc.Rows) != len(expected) {
		t.Fatalf("Expected %d rows but have: %d", len(expected), len(doc.Rows))
	}
	for i, row := range doc.Rows {
		if row != expected[i] {
			t.Errorf("Expected row %d: %+v but have: %+v", i, expected[i], row)
		}
	}
}

func TestMappingDocumentationFormatCSV(t *testing.T) {
	csv, err := GenerateMappingDocumentation(testDocSettings).FormatCSV()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 8 {
		t.Fatalf("Expected 8 lines but have: %d\n%s", len(lines), csv)
	}
	if lines[0] != "# Attribute group: mailjet_marketing_germany" {
		t.Errorf("Expected the attribute group line but have: %s", lines[0])
	}
	if lines[1] != "Kind,Mailjet Name,Mailjet Contact Field,Hull Source,Mapping Notes" {
		t.Errorf("Expected the header line but have: %s", lines[1])
	}
	if lines[2] != "Attribute,Name (*),✓,name," {
		t.Errorf("Expected the reserved name row but have: %s", lines[2])
	}
	if lines[6] != `List,1115,,seg-1,"Subscribed with addnoforce, unsubscribed when leaving the segment"` {
		t.Errorf("Expected the quoted list row but have: %s", lines[6])
	}
}
