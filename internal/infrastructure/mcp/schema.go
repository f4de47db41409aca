package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI  = "notewise://schema"
	historyURI = "notewise://history"
)

// maxHistoryEntries bounds the history resource to the most recent entries.
const maxHistoryEntries = 50

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

func toolNames() []string {
	return []string{
		"notewise_generate",
		"notewise_summarize",
		"notewise_enhance",
		"notewise_proofread",
		"notewise_extend",
		"notewise_actions",
	}
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version and tool list").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonResource(schemaURI, schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         toolNames(),
			})
		})
}

func (s *Server) registerHistoryResource() {
	s.mcpServer.Resource(historyURI).
		Name(historyURI).
		Description("Most recent assist interactions (operation, source, error kind, duration)").
		MimeType("application/json").
		Handler(s.handleHistory)
}

func (s *Server) handleHistory(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
	entries := []storage.HistoryEntry{}
	if s.history != nil {
		loaded, err := s.history.Load()
		if err != nil {
			return nil, mcpErr("Failed to read assist history.")
		}
		entries = append(entries, loaded...)
	}
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	return jsonResource(historyURI, entries)
}

func jsonResource(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
