package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/fuzzymatch/internal/match"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
	"github.com/Aman-CERP/fuzzymatch/pkg/version"
)

// ServerName is the implementation name announced to clients.
const ServerName = "fuzzymatch"

// Matcher is the part of a MatchingSet the server needs.
type Matcher interface {
	Get(ctx context.Context, target map[string]string) ([]match.Match, error)
	Status(ctx context.Context) ([]store.FieldIndexInfo, error)
	Fields() []string
	TopN() int
}

var _ Matcher = (*match.MatchingSet)(nil)

// Server is the MCP server over a Matcher.
type Server struct {
	mcp     *mcp.Server
	matcher Matcher
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an MCP server exposing m.
func NewServer(m Matcher, opts ...Option) (*Server, error) {
	if m == nil {
		return nil, errors.New("matcher is required")
	}

	s := &Server{
		matcher: m,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return toolInfos
}

var toolInfos = []ToolInfo{
	{
		Name:        "match",
		Description: "Find the records most similar to a target. Pass a value for every configured field; returns ranked identities with a total similarity and the weighted score each field contributed. Only records every field could score are returned.",
	},
	{
		Name:        "index_status",
		Description: "Report the configured fields, which of them have a built index, and top_n. Use before match to check the indices are ready.",
	},
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[0].Name, Description: toolInfos[0].Description}, s.mcpMatchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: toolInfos[1].Name, Description: toolInfos[1].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(toolInfos)))
}

// CallTool invokes a tool by name with JSON-like arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "match":
		var in MatchInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleMatch(ctx, in)
	case "index_status":
		return s.handleIndexStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

func (s *Server) handleMatch(ctx context.Context, in MatchInput) (MatchOutput, error) {
	if len(in.Target) == 0 {
		return MatchOutput{}, NewInvalidParamsError("target is required")
	}
	if in.Limit < 0 {
		return MatchOutput{}, NewInvalidParamsError("limit must be >= 0")
	}

	requestID := generateRequestID()
	start := time.Now()

	matches, err := s.matcher.Get(ctx, in.Target)
	if err != nil {
		s.logger.Warn("mcp_match_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return MatchOutput{}, MapError(err)
	}

	if in.Limit > 0 && in.Limit < len(matches) {
		matches = matches[:in.Limit]
	}

	out := MatchOutput{Matches: make([]MatchResultOutput, len(matches))}
	for i, m := range matches {
		out.Matches[i] = MatchResultOutput{
			Rank:       i + 1,
			ID:         m.ID,
			Similarity: m.Similarity,
			Fields:     m.Fields,
		}
	}

	s.logger.Info("mcp_match_complete",
		slog.String("request_id", requestID),
		slog.Int("matches", len(out.Matches)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func (s *Server) handleIndexStatus(ctx context.Context) (IndexStatusOutput, error) {
	infos, err := s.matcher.Status(ctx)
	if err != nil {
		return IndexStatusOutput{}, MapError(err)
	}

	out := IndexStatusOutput{
		TopN:   s.matcher.TopN(),
		Fields: s.matcher.Fields(),
		Built:  make([]FieldStatusOutput, 0, len(infos)),
	}
	built := make(map[string]bool, len(infos))
	for _, info := range infos {
		built[info.Field] = true
		out.Built = append(out.Built, FieldStatusOutput{
			Field:     info.Field,
			Algorithm: info.Algorithm,
			Weight:    info.Weight,
			Records:   info.Records,
			Indexed:   info.Indexed,
			Bytes:     info.Bytes,
			BuiltAt:   info.BuiltAt.UTC().Format(time.RFC3339),
		})
	}
	for _, f := range out.Fields {
		if !built[f] {
			out.Missing = append(out.Missing, f)
		}
	}
	out.Ready = len(out.Missing) == 0
	return out, nil
}

func (s *Server) mcpMatchHandler(ctx context.Context, _ *mcp.CallToolRequest, input MatchInput) (
	*mcp.CallToolResult,
	MatchOutput,
	error,
) {
	out, err := s.handleMatch(ctx, input)
	if err != nil {
		return nil, MatchOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	out, err := s.handleIndexStatus(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, out, nil
}

// Serve runs the server on transport until ctx is done. Only stdio is
// supported.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
