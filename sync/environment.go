package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SettingsPathKey is the key inside a connector env var that names its settings file.
const SettingsPathKey = "SETTINGS_PATH"

// ConnectorEnvVar represents a connector environment variable.
type ConnectorEnvVar struct {
	Name string // Env var name (e.g. "MAILJET_ACME_PROD")
	Path string // SETTINGS_PATH value (e.g. "acme-prod")
}

// FindAllConnectorEnvVars scans environment variables for JSON values containing a SETTINGS_PATH.
// Results are sorted by env var name.
func FindAllConnectorEnvVars() []ConnectorEnvVar {
	var result []ConnectorEnvVar
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, value := parts[0], parts[1]

		var m map[string]string
		// most env vars are plain strings (e.g. PATH), skip those silently
		if err := json.Unmarshal([]byte(value), &m); err != nil {
			continue
		}

		if p, ok := m[SettingsPathKey]; ok && p != "" {
			result = append(result, ConnectorEnvVar{Name: name, Path: p})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// settingsPathFromEnvVar reads SETTINGS_PATH from the JSON value of envVarName.
func settingsPathFromEnvVar(envVarName string) (string, error) {
	p, ok := JSONCompositeEnvVar{Parent: envVarName}.LookupEnv(SettingsPathKey)
	if !ok || p == "" {
		return "", fmt.Errorf("env var %q is missing %s", envVarName, SettingsPathKey)
	}
	return p, nil
}

// LoadSettingsFromEnvironment loads defaults.yaml and the connector file named by the
// SETTINGS_PATH of envVarName. ${VAR} references in the files resolve against the
// other keys of the same env var, so credentials never live in the files.
func LoadSettingsFromEnvironment(embeddedSettings EmbeddedSettings, envVarName string) (Settings, error) {
	var result Settings

	settingsPath, err := settingsPathFromEnvVar(envVarName)
	if err != nil {
		return result, fmt.Errorf("failed to find connector env var %w", err)
	}

	defaultsFile, err := embeddedSettings.MustFindDefaultsSettingsFile()
	if err != nil {
		return result, fmt.Errorf("failed to read defaults settings file %w", err)
	}

	connectorFile, err := embeddedSettings.MustFindConnectorSettingsFile(settingsPath)
	if err != nil {
		return result, fmt.Errorf("failed to read connector settings file %w", err)
	}

	result, err = YAMLSettingsUnmarshaler{}.Unmarshal(
		JSONCompositeEnvVar{Parent: envVarName},
		defaultsFile,
		connectorFile,
	)
	if err != nil {
		return result, fmt.Errorf("failed to load settings %w", err)
	}

	return result, nil
}

// ValidateConnectorEnvVars checks every connector env var against the embedded settings.
// Each SETTINGS_PATH must name a connector file, and no two env vars may share an API_KEY.
func ValidateConnectorEnvVars(embeddedSettings EmbeddedSettings) error {
	seen := make(map[string]string)
	for _, ev := range FindAllConnectorEnvVars() {
		if _, err := embeddedSettings.MustFindConnectorSettingsFile(ev.Path); err != nil {
			return fmt.Errorf("env var %q has an unknown %s %q %w", ev.Name, SettingsPathKey, ev.Path, err)
		}
		apiKey, ok := JSONCompositeEnvVar{Parent: ev.Name}.LookupEnv("API_KEY")
		if !ok || apiKey == "" {
			continue
		}
		if existing, found := seen[apiKey]; found {
			return fmt.Errorf("duplicate API_KEY found in env vars %q and %q", existing, ev.Name)
		}
		seen[apiKey] = ev.Name
	}
	return nil
}
