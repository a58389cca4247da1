package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// GraphURI is the resource exposing the interview graph.
const GraphURI = "parley://graph"

// Controller is the session API exposed as tools.
type Controller interface {
	Start(ctx context.Context, slots map[string]any) (*session.Result, error)
	Resume(ctx context.Context, sessionID, input string) (*session.Result, error)
	Status(ctx context.Context, sessionID string) (*session.Status, error)
}

// StartArgs are the arguments of start_interview.
type StartArgs struct {
	SessionID    string `json:"session_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	MaxQuestions int    `json:"max_questions,omitempty"`
}

// ResumeArgs are the arguments of resume_interview.
type ResumeArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// StatusArgs are the arguments of get_status.
type StatusArgs struct {
	SessionID string `json:"session_id"`
}

// TurnResponse is returned by start_interview and resume_interview.
type TurnResponse struct {
	SessionID     string   `json:"session_id" jsonschema_description:"The session to resume with the next reply"`
	Messages      []string `json:"messages" jsonschema_description:"What the interviewer said during this turn, in order"`
	PendingNode   string   `json:"pending_node" jsonschema_description:"The step waiting for the next reply"`
	Terminal      bool     `json:"terminal" jsonschema_description:"True once the interview has ended"`
	QuestionCount int      `json:"question_count" jsonschema_description:"Questions asked so far"`
}

// Server exposes a session controller as an MCP server.
type Server struct {
	ctrl      Controller
	graph     string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGraph publishes a Mermaid rendering of the graph as a tool and a resource.
func WithGraph(mermaid string) Option {
	return func(s *Server) { s.graph = mermaid }
}

// NewServer creates a new MCP Server instance.
func NewServer(ctrl Controller, version string, opts ...Option) *Server {
	s := &Server{
		ctrl:      ctrl,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.graph != "" {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_interview",
		mcp.WithDescription("Start a practice interview. Returns the interviewer's opening and the session id to use for replies."),
		mcp.WithString("session_id", mcp.Description("Optional session id; generated when omitted")),
		mcp.WithString("name", mcp.Description("Student's first name; asked for when omitted")),
		mcp.WithString("topic", mcp.Description("Optional topic hint")),
		mcp.WithString("difficulty", mcp.Description("Optional difficulty hint: easy, medium or hard")),
		mcp.WithNumber("max_questions", mcp.Description("Number of questions to ask (default 3)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	resumeTool := mcp.NewTool("resume_interview",
		mcp.WithDescription("Send the student's reply to a suspended interview and get the interviewer's response."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_interview")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The student's reply")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(resumeTool, mcp.NewStructuredToolHandler(s.handleResume))

	statusTool := mcp.NewTool("get_status",
		mcp.WithDescription("Report where an interview stands without changing it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[session.Status](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	if s.graph != "" {
		s.mcpServer.AddTool(mcp.NewTool("get_graph",
			mcp.WithDescription("Get the interview graph as a Mermaid flowchart."),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(s.graph), nil
		})
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Interview graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     s.graph,
			},
		}, nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (TurnResponse, error) {
	slots := map[string]any{}
	if args.SessionID != "" {
		slots["session_id"] = args.SessionID
	}
	if args.Name != "" {
		slots["name"] = args.Name
	}
	if args.Topic != "" {
		slots["topic"] = args.Topic
	}
	if args.Difficulty != "" {
		slots["difficulty"] = args.Difficulty
	}
	if args.MaxQuestions != 0 {
		slots["max_questions"] = args.MaxQuestions
	}

	res, err := s.ctrl.Start(ctx, slots)
	if err != nil {
		return TurnResponse{}, s.neutral(ctx, "start_interview", err)
	}
	return turn(res), nil
}

func (s *Server) handleResume(ctx context.Context, _ mcp.CallToolRequest, args ResumeArgs) (TurnResponse, error) {
	if args.SessionID == "" {
		return TurnResponse{}, errors.New("session_id is required")
	}
	res, err := s.ctrl.Resume(ctx, args.SessionID, args.Input)
	if err != nil {
		return TurnResponse{}, s.neutral(ctx, "resume_interview", err)
	}
	return turn(res), nil
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest, args StatusArgs) (session.Status, error) {
	if args.SessionID == "" {
		return session.Status{}, errors.New("session_id is required")
	}
	st, err := s.ctrl.Status(ctx, args.SessionID)
	if err != nil {
		return session.Status{}, s.neutral(ctx, "get_status", err)
	}
	return *st, nil
}

func turn(res *session.Result) TurnResponse {
	msgs := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		msgs = append(msgs, m.Text)
	}
	return TurnResponse{
		SessionID:     res.SessionID,
		Messages:      msgs,
		PendingNode:   res.Status.PendingNode,
		Terminal:      res.Status.Terminal,
		QuestionCount: res.Status.QuestionCount,
	}
}

// neutral logs err and returns a replacement safe to show the counterpart.
func (s *Server) neutral(ctx context.Context, tool string, err error) error {
	s.logger.ErrorContext(ctx, "mcp tool failed", "tool", tool, "error", err)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errors.New("session not found")
	case errors.Is(err, domain.ErrSessionExists):
		return errors.New("session already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		return errors.New("that message could not be accepted, please try again")
	case errors.Is(err, domain.ErrSessionUnavailable):
		return errors.New("the session is temporarily unavailable, please retry")
	default:
		return errors.New("something went wrong on our side, please try again later")
	}
}
