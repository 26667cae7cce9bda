package sync

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

type SettingsFile struct {
	Name   string
	Reader io.Reader
	Length int
}

func newSettingsFile(name string, b []byte) SettingsFile {
	return SettingsFile{
		Name:   name,
		Reader: bytes.NewReader(b),
		Length: len(b),
	}
}

// ReadSettingsFile wraps the contents of r as a SettingsFile.
func ReadSettingsFile(name string, r io.Reader) (SettingsFile, error) {
	var result SettingsFile
	b, err := io.ReadAll(r)
	if err != nil {
		return result, fmt.Errorf("failed to read settings file %q %w", name, err)
	}
	return newSettingsFile(name, b), nil
}

// EmbeddedSettings locates settings files in an embedded filesystem laid out as
//
//	<Root>/defaults.yaml
//	<Root>/connectors/<name>.yaml
type EmbeddedSettings struct {
	Root  string
	Files EmbeddedFS
}

type EmbeddedFS interface {
	Open(name string) (fs.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

func (es EmbeddedSettings) MustFindRootSettingsFile(filename string) (SettingsFile, error) {
	var result SettingsFile
	name := path.Join(es.Root, filename)
	b, err := es.Files.ReadFile(name)
	if err == nil {
		result = newSettingsFile(name, b)
	}
	return result, err
}

func (es EmbeddedSettings) MustFindDefaultsSettingsFile() (SettingsFile, error) {
	return es.MustFindRootSettingsFile("defaults.yaml")
}

// MustFindConnectorSettingsFile returns connectors/<connector>.yaml (or .yml).
func (es EmbeddedSettings) MustFindConnectorSettingsFile(connector string) (SettingsFile, error) {
	var result SettingsFile
	dir := path.Join(es.Root, "connectors")
	files, err := es.Files.ReadDir(dir)
	if err != nil {
		return result, err
	}
	for _, file := range files {
		if file.IsDir() || settingsFileStem(file.Name()) != connector {
			continue
		}
		// guard against both <name>.yaml and <name>.yml being present
		if result.Name != "" {
			return result, fmt.Errorf("found multiple settings files for connector: %s in dir: %s", connector, dir)
		}
		p := path.Join(dir, file.Name())
		var b []byte
		b, err = es.Files.ReadFile(p)
		if err != nil {
			return result, err
		}
		result = newSettingsFile(p, b)
	}
	if result.Name == "" {
		err = fmt.Errorf("failed to find settings file for connector: %s in dir: %s", connector, dir)
	}
	return result, err
}

// ConnectorNames lists the connectors that have a settings file, sorted.
func (es EmbeddedSettings) ConnectorNames() ([]string, error) {
	files, err := es.Files.ReadDir(path.Join(es.Root, "connectors"))
	if err != nil {
		return nil, err
	}
	var result []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if stem := settingsFileStem(file.Name()); stem != "" {
			result = append(result, stem)
		}
	}
	sort.Strings(result)
	return result, nil
}

func settingsFileStem(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".yaml"):
		return strings.TrimSuffix(filename, ".yaml")
	case strings.HasSuffix(filename, ".yml"):
		return strings.TrimSuffix(filename, ".yml")
	}
	return ""
}
