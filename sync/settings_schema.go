package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const settingsSchemaURL = "https://github.com/homemade/mjsync/settings.schema.json"

const settingsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"api_key": { "type": ["string", "null"] },
		"api_secret_key": { "type": ["string", "null"] },
		"subaccount_slug": { "type": ["string", "null"] },
		"contact_synchronized_segments": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"hull_segment_id": { "type": ["string", "null"] },
					"service_list_id": { "type": ["integer", "null"], "minimum": 0 }
				},
				"additionalProperties": false
			}
		},
		"contact_attributes_outbound": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"hull_field_name": { "type": ["string", "null"] },
					"service_field_name": { "type": ["string", "null"] }
				},
				"additionalProperties": false
			}
		},
		"incoming_eventcallbackurl_eventtypes": {
			"type": ["array", "null"],
			"items": { "enum": ["open", "click", "bounce", "spam", "blocked", "unsub", "sent"] },
			"uniqueItems": true
		}
	}
}`

var compiledSettingsSchema = mustCompileSettingsSchema()

func mustCompileSettingsSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(settingsSchemaURL, strings.NewReader(settingsSchema)); err != nil {
		panic(fmt.Sprintf("sync: invalid settings schema: %v", err))
	}
	schema, err := c.Compile(settingsSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("sync: invalid settings schema: %v", err))
	}
	return schema
}

func validateSettingsDocument(b []byte) error {
	var document any
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("settings are not valid json %w", err)
	}
	if err := compiledSettingsSchema.Validate(document); err != nil {
		return fmt.Errorf("failed to validate settings %w", err)
	}
	return nil
}
