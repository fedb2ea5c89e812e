package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"

	"lendbook/internal/core"
)

// DocumentVersion is the version written into JSON exports.
const DocumentVersion = 1

// Document is the JSON backup form: the full collection together with
// the collaborator settings. Settings is nil when the parsed input did
// not carry any, which happens for bare-array backups.
type Document struct {
	Version     int               `json:"version"`
	Settings    *core.Settings    `json:"settings,omitempty"`
	Investments []core.Investment `json:"investments"`
}

// BuildDocument assembles a versioned document for export.
func BuildDocument(investments []core.Investment, settings core.Settings) Document {
	s := settings.Normalized()
	return Document{
		Version:     DocumentVersion,
		Settings:    &s,
		Investments: core.SortedByOrder(investments),
	}
}

// ParseDocument reads a JSON backup. Both the current object form and
// the oldest form, a bare array of investments, are accepted. A
// document that parses but contains no investments yields
// ErrNoValidData.
func ParseDocument(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	var doc Document
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Investments); err != nil {
			return Document{}, fmt.Errorf("parsing investment array: %w", err)
		}
	} else {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Document{}, fmt.Errorf("parsing document: %w", err)
		}
	}
	if doc.Version > DocumentVersion {
		return Document{}, fmt.Errorf("unsupported document version %d", doc.Version)
	}
	if len(doc.Investments) == 0 {
		return Document{}, core.ErrNoValidData
	}
	if doc.Settings != nil {
		s := doc.Settings.Normalized()
		doc.Settings = &s
	}
	return doc, nil
}
