package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/homemade/mjsync/sync"
)

// consoleHullClient prints everything that would be written to Hull.
type consoleHullClient struct {
	out      io.Writer
	settings *sync.Settings
}

func (c *consoleHullClient) print(kind string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("Warning: failed to encode %s %v", kind, err)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", kind, b)
}

func (c *consoleHullClient) AsUser(claims sync.HullUserClaims) sync.HullUserScope {
	return consoleHullUser{client: c, claims: claims}
}

func (c *consoleHullClient) Logger() sync.HullLogger {
	return sync.StdLogger{}
}

func (c *consoleHullClient) PutConnectorStatus(ctx context.Context, status sync.ConnectorStatus) error {
	c.print("status", status)
	return nil
}

func (c *consoleHullClient) Settings(ctx context.Context) (*sync.Settings, error) {
	if c.settings == nil {
		return nil, fmt.Errorf("no settings loaded")
	}
	s := *c.settings
	return &s, nil
}

func (c *consoleHullClient) UpdateSettings(ctx context.Context, settings map[string]interface{}) error {
	c.print("settings", settings)
	return nil
}

type consoleHullUser struct {
	client *consoleHullClient
	claims sync.HullUserClaims
}

func (u consoleHullUser) Traits(ctx context.Context, attributes sync.HullAttributes) error {
	u.client.print("traits", map[string]interface{}{"claims": u.claims, "attributes": attributes})
	return nil
}

func (u consoleHullUser) Track(ctx context.Context, event string, properties json.RawMessage, trackContext sync.TrackContext) error {
	u.client.print("track", map[string]interface{}{
		"claims":     u.claims,
		"event":      event,
		"properties": properties,
		"context":    trackContext,
	})
	return nil
}

func (u consoleHullUser) Logger() sync.HullLogger {
	return sync.StdLogger{Prefix: u.claims.String()}
}

type consoleMetrics struct{}

func (consoleMetrics) Increment(name string, value int) {
	log.Printf("metric %s +%d", name, value)
}

// osEnv expands ${VAR} references in settings files from the process environment.
type osEnv struct{}

func (osEnv) LookupEnv(child string) (string, bool) {
	return os.LookupEnv(child)
}
