package sync

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
)

// MappingDocRow represents a single row in the mapping documentation.
type MappingDocRow struct {
	Kind        string // "Attribute" or "List"
	ServiceName string // Mailjet property name or list id
	Reserved    bool   // Whether the property is set on the contact itself
	SourcePath  string // Hull attribute path or segment id
	Notes       string // Modifiers and warnings
}

// MappingDocumentation describes the outbound mappings of one connector.
type MappingDocumentation struct {
	AttributeGroup string
	Rows           []MappingDocRow
}

// GenerateMappingDocumentation generates mapping documentation from connector settings.
func GenerateMappingDocumentation(settings Settings) MappingDocumentation {
	doc := MappingDocumentation{
		AttributeGroup: NewMapper(settings).AttributeGroup(),
		Rows:           []MappingDocRow{},
	}

	var attributes []MappingDocRow
	for _, mapping := range settings.ContactAttributesOutbound {
		attributes = append(attributes, createAttributeDocRow(mapping))
	}
	// Reserved properties first, then alphabetically by property name
	sort.SliceStable(attributes, func(i, j int) bool {
		if attributes[i].Reserved != attributes[j].Reserved {
			return attributes[i].Reserved
		}
		return attributes[i].ServiceName < attributes[j].ServiceName
	})
	doc.Rows = append(doc.Rows, attributes...)

	var lists []MappingDocRow
	for _, mapping := range settings.ContactSynchronizedSegments {
		lists = append(lists, MappingDocRow{
			Kind:        "List",
			ServiceName: fmt.Sprintf("%d", mapping.ServiceListID),
			SourcePath:  mapping.HullSegmentID,
			Notes:       "Subscribed with addnoforce, unsubscribed when leaving the segment",
		})
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].SourcePath < lists[j].SourcePath
	})
	doc.Rows = append(doc.Rows, lists...)

	return doc
}

func createAttributeDocRow(mapping AttributeMapping) MappingDocRow {
	mapping = mapping.Trimmed()
	row := MappingDocRow{
		Kind:        "Attribute",
		ServiceName: mapping.ServiceFieldName,
		Reserved:    IsReservedServiceField(mapping.ServiceFieldName),
	}

	sourcePath, modifiers := parseSourcePath(strings.TrimSpace(mapping.HullFieldName))
	row.SourcePath = sourcePath

	notes := []string{}
	for _, modifier := range modifiers {
		notes = append(notes, formatModifierNote(modifier))
	}
	if !mapping.IsValid() {
		notes = append(notes, "Skipped: incomplete mapping")
	}
	row.Notes = strings.Join(notes, " | ")
	return row
}

// parseSourcePath extracts the source path and modifiers from a mapping value.
// e.g., "address_country|@countryName" -> ("address_country", ["@countryName"])
func parseSourcePath(value string) (string, []string) {
	if value == "" {
		return "(none)", nil
	}

	parts := strings.Split(value, "|")
	sourcePath := parts[0]
	var modifiers []string
	for i := 1; i < len(parts); i++ {
		if strings.HasPrefix(parts[i], "@") {
			modifiers = append(modifiers, parts[i])
		}
	}
	return sourcePath, modifiers
}

// formatModifierNote formats a modifier into a human-readable note.
func formatModifierNote(modifier string) string {
	switch {
	case modifier == "@countryName":
		return "Uses @countryName modifier"
	case modifier == "@lower":
		return "Converts to lowercase"
	case strings.HasPrefix(modifier, "@e164:"):
		arg := strings.TrimPrefix(modifier, "@e164:")
		return fmt.Sprintf("Formats phone as E.164 (default country code %s)", arg)
	case strings.HasPrefix(modifier, "@gte:"):
		arg := strings.TrimPrefix(modifier, "@gte:")
		return fmt.Sprintf("Uses @gte:%s modifier", arg)
	case strings.HasPrefix(modifier, "@contains:"):
		arg := strings.TrimPrefix(modifier, "@contains:")
		return fmt.Sprintf("Uses @contains:%s modifier", arg)
	default:
		return fmt.Sprintf("Modifier: %s", modifier)
	}
}

// FormatCSV formats the mapping documentation as CSV.
func (d MappingDocumentation) FormatCSV() (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{fmt.Sprintf("# Attribute group: %s", d.AttributeGroup)}); err != nil {
		return "", err
	}
	headers := []string{"Kind", "Mailjet Name", "Mailjet Contact Field", "Hull Source", "Mapping Notes"}
	if err := writer.Write(headers); err != nil {
		return "", err
	}

	for _, row := range d.Rows {
		reservedMark := ""
		if row.Reserved {
			reservedMark = "✓"
		}
		if err := writer.Write([]string{row.Kind, row.ServiceName, reservedMark, row.SourcePath, row.Notes}); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
