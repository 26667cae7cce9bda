// mjsync runs the Hull to Mailjet connector operations from the command line.
// Hull writes (traits, tracked events, status, settings) are printed to stdout.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/homemade/mjsync/sync"
)

//go:embed settings
var embeddedFiles embed.FS

var embeddedSettings = sync.EmbeddedSettings{Root: "settings", Files: embeddedFiles}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	settingsPath string
	envVar       string
	identity     sync.ConnectorIdentity
	baseURL      string
	recordDir    string
	force        bool
	batch        bool
}

func run(arguments []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("mjsync", pflag.ContinueOnError)
	flagSet.StringVar(&opts.settingsPath, "settings", "", "settings file (.json with comments, or .yaml)")
	flagSet.StringVar(&opts.envVar, "env", "", "env var holding SETTINGS_PATH and credentials for the embedded settings")
	flagSet.StringVar(&opts.identity.ID, "connector-id", os.Getenv("CONNECTOR_ID"), "connector id, used as the callback basic auth user")
	flagSet.StringVar(&opts.identity.Secret, "connector-secret", os.Getenv("CONNECTOR_SECRET"), "connector secret, used as the callback basic auth password")
	flagSet.StringVar(&opts.identity.URL, "connector-url", os.Getenv("CONNECTOR_URL"), "public base url of the connector")
	flagSet.StringVar(&opts.identity.HomepageURL, "homepage-url", os.Getenv("CONNECTOR_HOMEPAGE_URL"), "connector homepage url inside the Hull organization")
	flagSet.StringVar(&opts.baseURL, "base-url", sync.MailjetAPIBaseURL, "Mailjet API root")
	flagSet.StringVar(&opts.recordDir, "record-dir", "", "record Mailjet requests and responses to this directory")
	flagSet.BoolVar(&opts.force, "force", false, "reload settings before ensuring webhooks")
	flagSet.BoolVar(&opts.batch, "batch", false, "treat user messages as a batch")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) == 0 {
		printHelp(flagSet)
		return fmt.Errorf("missing command")
	}

	if args[0] == "connectors" {
		if err := sync.ValidateConnectorEnvVars(embeddedSettings); err != nil {
			return err
		}
		names, err := embeddedSettings.ConnectorNames()
		if err != nil {
			return fmt.Errorf("failed to list embedded connectors %w", err)
		}
		envVars := map[string][]string{}
		for _, ev := range sync.FindAllConnectorEnvVars() {
			envVars[ev.Path] = append(envVars[ev.Path], ev.Name)
		}
		for _, name := range names {
			fmt.Fprintf(stdout, "%s\t%s\n", name, strings.Join(envVars[name], ","))
		}
		return nil
	}

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	hull := &consoleHullClient{out: stdout, settings: settings}
	agentOptions := []sync.AgentOption{sync.WithBaseURL(opts.baseURL)}
	if opts.recordDir != "" {
		agentOptions = append(agentOptions, sync.WithRecordDir(opts.recordDir))
	}
	agent := sync.NewSyncAgent(hull, consoleMetrics{}, settings, opts.identity, agentOptions...)
	ctx := context.Background()

	switch args[0] {
	case "status":
		_, err = agent.DetermineConnectorStatus(ctx)
		return err

	case "webhooks":
		if len(args) < 2 {
			return fmt.Errorf("usage: mjsync webhooks ensure|clear")
		}
		var result sync.WebhookResult
		switch args[1] {
		case "ensure":
			result = agent.EnsureWebhooks(ctx, opts.force)
		case "clear":
			result = agent.ClearWebhooks(ctx)
		default:
			return fmt.Errorf("unknown webhooks command: %s", args[1])
		}
		if err = printJSON(stdout, "webhooks", map[string]interface{}{
			"deletes": result.Plan.Deletes,
			"creates": result.Plan.Creates,
			"deleted": result.Deleted,
			"created": result.Created,
		}); err != nil {
			return err
		}
		return result.Err

	case "metadata":
		if len(args) < 2 {
			return fmt.Errorf("usage: mjsync metadata %s|%s", sync.MetadataKindContactProperties, sync.MetadataKindContactLists)
		}
		return printJSON(stdout, "metadata", agent.Metadata(ctx, args[1]))

	case "mappings":
		if settings == nil {
			return fmt.Errorf("no settings loaded")
		}
		csv, err := sync.GenerateMappingDocumentation(*settings).FormatCSV()
		if err != nil {
			return fmt.Errorf("failed to format mapping documentation %w", err)
		}
		_, err = io.WriteString(stdout, csv)
		return err

	case "sync":
		var messages []sync.HullUserUpdateMessage
		if err = json.NewDecoder(stdin).Decode(&messages); err != nil {
			return fmt.Errorf("failed to decode user update messages %w", err)
		}
		for _, result := range agent.SendUserMessages(ctx, messages, opts.batch) {
			line := map[string]interface{}{
				"id":        result.Envelope.ID,
				"operation": result.Envelope.Operation,
				"reason":    result.Envelope.Reason,
				"published": result.Published,
			}
			if result.Err != nil {
				line["error"] = result.Err.Error()
			}
			if err = printJSON(stdout, "outgoing", line); err != nil {
				return err
			}
		}
		return nil

	case "events":
		payload, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read event payload %w", err)
		}
		results, err := agent.HandleEventCallbacks(ctx, payload)
		if err != nil {
			return err
		}
		for _, result := range results {
			line := map[string]interface{}{"type": result.Event.Type(), "outcome": result.Outcome}
			if result.Err != nil {
				line["error"] = result.Err.Error()
			}
			if err = printJSON(stdout, "incoming", line); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// loadSettings returns nil settings when no source is given.
func loadSettings(opts options) (*sync.Settings, error) {
	switch {
	case opts.envVar != "":
		settings, err := sync.LoadSettingsFromEnvironment(embeddedSettings, opts.envVar)
		if err != nil {
			return nil, err
		}
		return &settings, nil
	case opts.settingsPath != "":
		f, err := os.Open(opts.settingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open settings file %w", err)
		}
		defer f.Close()
		file, err := sync.ReadSettingsFile(opts.settingsPath, f)
		if err != nil {
			return nil, err
		}
		var settings sync.Settings
		switch strings.ToLower(filepath.Ext(opts.settingsPath)) {
		case ".yaml", ".yml":
			settings, err = sync.YAMLSettingsUnmarshaler{}.Unmarshal(osEnv{}, file)
		default:
			var b []byte
			b, err = io.ReadAll(file.Reader)
			if err == nil {
				settings, err = sync.ParseSettingsJSON(b)
			}
		}
		if err != nil {
			return nil, err
		}
		return &settings, nil
	default:
		return nil, nil
	}
}

func printJSON(w io.Writer, kind string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s output %w", kind, err)
	}
	_, err = fmt.Fprintf(w, "%s %s\n", kind, b)
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `mjsync runs Hull to Mailjet connector operations.

Usage:
  mjsync [flags] status
  mjsync [flags] webhooks ensure [--force]
  mjsync [flags] webhooks clear
  mjsync [flags] metadata contactproperties|contactlists
  mjsync [flags] mappings
  mjsync [flags] sync [--batch]   < user-update-messages.json
  mjsync [flags] events           < mailjet-events.json
  mjsync connectors

Flags:
%s`, flagSet.FlagUsages())
}
