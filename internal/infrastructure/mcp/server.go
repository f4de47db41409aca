package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/notewise/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/notewise/pkg/application"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

type Server struct {
	mcpServer *mcp.Server
	assistSvc *application.AssistService
	store     *storage.Workspace
	history   *storage.HistoryStore
	root      string
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

// NewServer wires services for root and registers every tool.
func NewServer(root string, opts wiring.Options) (*Server, error) {
	services, err := wiring.BuildAppServices(root, opts)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return NewServerWithServices(services), nil
}

// NewServerWithServices builds a server over already wired services.
func NewServerWithServices(services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "notewise",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Notewise MCP Server"),
			mcp.WithDescription("Notewise generates, summarizes, enhances, proofreads and extends note text."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Pass the note text (or a path relative to the workspace) to an action tool. "+
				"Call notewise_actions first to see which actions a note allows."),
		),
		assistSvc: services.Assist,
	}
	if services.Workspace != nil {
		s.store = services.Workspace.Store
		s.history = services.Workspace.History
		s.root = s.store.Root()
	}

	s.registerTools()
	s.registerSchemaResource()
	s.registerHistoryResource()
	return s
}

type GenerateArgs struct {
	Prompt string `json:"prompt" jsonschema:"required,description=What to write"`
	Note   string `json:"note,omitempty" jsonschema:"description=Existing note text used as context"`
	Path   string `json:"path,omitempty" jsonschema:"description=Note file relative to the workspace root, used when note is empty"`
}

type NoteArgs struct {
	Note string `json:"note,omitempty" jsonschema:"description=The note text"`
	Path string `json:"path,omitempty" jsonschema:"description=Note file relative to the workspace root, used when note is empty"`
}

// AssistOutput is returned by every action tool.
type AssistOutput struct {
	Operation string `json:"operation"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("notewise_generate").
		Description("Write new text from a prompt, using the note as context when given").
		Handler(s.handleGenerate)

	s.mcpServer.Tool("notewise_summarize").
		Description("Summarize a note of at least 100 words").
		Handler(s.handleSummarize)

	s.mcpServer.Tool("notewise_enhance").
		Description("Rewrite a note for clarity and structure").
		Handler(s.handleEnhance)

	s.mcpServer.Tool("notewise_proofread").
		Description("Fix spelling, grammar and punctuation in a note").
		Handler(s.handleProofread)

	s.mcpServer.Tool("notewise_extend").
		Description("Continue a note in the same voice").
		Handler(s.handleExtend)

	s.mcpServer.Tool("notewise_actions").
		Description("Report which assist actions are enabled for a note").
		Handler(s.handleActions)
}

func (s *Server) handleGenerate(ctx context.Context, args GenerateArgs) (any, error) {
	note, err := s.noteText(ctx, args.Note, args.Path)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, ai.OpGenerate, note, args.Prompt)
}

func (s *Server) handleSummarize(ctx context.Context, args NoteArgs) (any, error) {
	return s.runNote(ctx, ai.OpSummarize, args)
}

func (s *Server) handleEnhance(ctx context.Context, args NoteArgs) (any, error) {
	return s.runNote(ctx, ai.OpEnhance, args)
}

func (s *Server) handleProofread(ctx context.Context, args NoteArgs) (any, error) {
	return s.runNote(ctx, ai.OpProofread, args)
}

func (s *Server) handleExtend(ctx context.Context, args NoteArgs) (any, error) {
	return s.runNote(ctx, ai.OpExtend, args)
}

func (s *Server) handleActions(ctx context.Context, args NoteArgs) (any, error) {
	note, err := s.noteText(ctx, args.Note, args.Path)
	if err != nil {
		return nil, err
	}
	return s.assistSvc.Actions(note), nil
}

func (s *Server) runNote(ctx context.Context, op ai.Operation, args NoteArgs) (any, error) {
	note, err := s.noteText(ctx, args.Note, args.Path)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, op, note, "")
}

func (s *Server) run(ctx context.Context, op ai.Operation, note, prompt string) (any, error) {
	res, err := s.assistSvc.Run(ctx, op, note, prompt)
	if err != nil {
		return nil, friendlyError(err)
	}
	return AssistOutput{
		Operation: string(res.Operation),
		Text:      res.Text,
		Source:    string(res.Source),
	}, nil
}

func (s *Server) noteText(ctx context.Context, note, path string) (string, error) {
	if strings.TrimSpace(note) != "" || path == "" {
		return note, nil
	}
	if s.store == nil {
		return "", mcpErr("Note paths are not available on this server. Pass the note text instead.")
	}
	full, err := s.store.ResolveNotePath(path)
	if err != nil {
		return "", mcpErr(fmt.Sprintf("Note %q is outside the workspace. Pass a path relative to the workspace root.", path))
	}
	text, err := s.store.ReadNote(ctx, full)
	if err != nil {
		return "", mcpErr(fmt.Sprintf("Failed to read note %q. Check the path is relative to the workspace root.", path))
	}
	return text, nil
}

// friendlyError keeps validation messages and hides transport details.
func friendlyError(err error) error {
	var f *ai.Failure
	if !errors.As(err, &f) {
		if errors.Is(err, application.ErrInFlight) || errors.Is(err, application.ErrInteractionClosed) {
			return mcpErr("Another request is still running. Try again shortly.")
		}
		return mcpErr("The assist request failed.")
	}
	switch f.Kind {
	case ai.KindValidation:
		return mcpErr(f.Message)
	case ai.KindServer:
		return mcpErr(fmt.Sprintf("The completion service returned HTTP %d. Try again later or enable fallback.", f.StatusCode))
	case ai.KindProtocol:
		return mcpErr("The completion service returned no text. Try again later or enable fallback.")
	default:
		return mcpErr("The completion service could not be reached. Check base_url and your connection, or enable fallback.")
	}
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP serves the streamable HTTP transport. Browsers are only let in
// from allowedOrigins; with none, no CORS headers are sent.
func (s *Server) ServeHTTP(ctx context.Context, addr string, allowedOrigins ...string) error {
	var opts []mcp.HTTPOption
	if len(allowedOrigins) > 0 {
		cors := mcp.DefaultCORSConfig()
		cors.AllowOrigins = allowedOrigins
		opts = append(opts, mcp.WithCORS(cors))
	}
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, opts...)
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}
