package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
	"github.com/custodia-labs/ragdocs/internal/core/services"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// DefaultTimeout bounds a tool call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Tool names.
const (
	ToolAddDocumentation    = "add_documentation"
	ToolAddDirectory        = "add_directory"
	ToolSearchDocumentation = "search_documentation"
	ToolListSources         = "list_sources"
	ToolDeleteDocumentation = "delete_documentation"
)

// Response is the textual result of a tool call.
type Response struct {
	Text    string
	IsError bool
}

func textResponse(text string) Response { return Response{Text: text} }

func errorResponse(format string, args ...any) Response {
	return Response{Text: fmt.Sprintf(format, args...), IsError: true}
}

type toolHandler func(ctx context.Context, args map[string]any) Response

type toolSpec struct {
	required []string
	handle   toolHandler
}

// Dispatcher routes tool calls by name to the retrieval service.
// It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	retrieval driving.RetrievalService
	timeout   time.Duration
	tools     map[string]toolSpec
}

// NewDispatcher creates a dispatcher. A non-positive timeout selects DefaultTimeout.
func NewDispatcher(retrieval driving.RetrievalService, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Dispatcher{retrieval: retrieval, timeout: timeout}
	d.tools = map[string]toolSpec{
		ToolAddDocumentation:    {required: []string{"url"}, handle: d.addDocumentation},
		ToolAddDirectory:        {required: []string{"path"}, handle: d.addDirectory},
		ToolSearchDocumentation: {required: []string{"query"}, handle: d.searchDocumentation},
		ToolListSources:         {handle: d.listSources},
		ToolDeleteDocumentation: {required: []string{"source"}, handle: d.deleteDocumentation},
	}
	return d
}

// Tools returns the registered tool names in sorted order.
func (d *Dispatcher) Tools() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timeout returns the per-call timeout.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Call runs the named tool. It never returns an error: unknown tools,
// missing arguments, failures, panics and timeouts all become text.
// A call that times out keeps running in the background and its result
// is discarded.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) Response {
	spec, ok := d.tools[name]
	if !ok {
		return errorResponse("Unknown tool: %s", name)
	}
	for _, arg := range spec.required {
		if s, ok := stringArg(args, arg); !ok || strings.TrimSpace(s) == "" {
			return errorResponse("Error: Missing required argument '%s'", arg)
		}
	}

	if ctx.Err() != nil {
		return errorResponse("Error: Operation cancelled")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan Response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("tool %s panicked: %v", name, r)
				done <- errorResponse("Error: unexpected failure: %v", r)
			}
		}()
		done <- spec.handle(ctx, args)
	}()

	var resp Response
	select {
	case resp = <-done:
	case <-ctx.Done():
	}

	// A result that races the deadline is discarded.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("tool %s timed out after %s", name, d.timeout)
			return errorResponse("Error: Operation timed out after %s", d.timeout)
		}
		return errorResponse("Error: Operation cancelled")
	}
	return resp
}

func (d *Dispatcher) addDocumentation(ctx context.Context, args map[string]any) Response {
	location, _ := stringArg(args, "url")
	result, err := d.retrieval.AddSource(ctx, location)
	if err != nil {
		return errorResponse("Error adding documentation: %v", err)
	}
	return Response{Text: services.FormatIngestResult(result), IsError: result.Chunks == 0}
}

func (d *Dispatcher) addDirectory(ctx context.Context, args map[string]any) Response {
	path, _ := stringArg(args, "path")
	report, err := d.retrieval.AddDirectory(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errorResponse("Error: '%s' is not a directory or doesn't exist", path)
		}
		return errorResponse("Error adding directory: %v", err)
	}
	return textResponse(services.FormatDirectoryReport(report))
}

func (d *Dispatcher) searchDocumentation(ctx context.Context, args map[string]any) Response {
	query, _ := stringArg(args, "query")
	limit, err := intArg(args, "limit", domain.DefaultSearchLimit)
	if err != nil {
		return errorResponse("Error: Invalid argument 'limit': %v", err)
	}
	results, err := d.retrieval.Search(ctx, domain.SearchQuery{
		Query:         query,
		SearchOptions: domain.SearchOptions{Limit: limit},
	})
	if err != nil {
		return errorResponse("Error searching documentation: %v", err)
	}
	return textResponse(services.FormatSearchResults(results))
}

func (d *Dispatcher) listSources(ctx context.Context, _ map[string]any) Response {
	sources, err := d.retrieval.ListSources(ctx)
	if err != nil {
		return errorResponse("Error listing sources: %v", err)
	}
	return textResponse(services.FormatSources(sources))
}

func (d *Dispatcher) deleteDocumentation(ctx context.Context, args map[string]any) Response {
	source, _ := stringArg(args, "source")
	n, err := d.retrieval.DeleteSource(ctx, source)
	if err != nil {
		return errorResponse("Error deleting documentation: %v", err)
	}
	return textResponse(services.FormatDeleted(source, n))
}

// stringArg returns a string argument. Absent, null and non-string values
// count as missing.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg reads an optional integer argument. JSON numbers decode as
// float64; numeric strings are accepted too. Non-positive values select def.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	var n float64
	switch x := v.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case float64:
		n = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", x)
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", x)
		}
		n = f
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}

	if n != math.Trunc(n) {
		return 0, fmt.Errorf("expected an integer, got %v", n)
	}
	if n <= 0 {
		return def, nil
	}
	return int(n), nil
}
