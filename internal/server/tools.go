package server

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	plantuml "plantuml-go"
	"plantuml-go/internal/metrics"
	"plantuml-go/internal/tracing"
)

// registerTools adds all PlantUML tools to the MCP server.
func (s *Server) registerTools() {
	s.addGenerateImageTool()
	s.addValidateSyntaxTool()
	s.addEncodeTool()
	s.addDecodeTool()
}

// --- generate_plantuml_image ---

func (s *Server) addGenerateImageTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "generate_plantuml_image",
			Title: "Generate PlantUML Diagram",
			Description: `Generate a UML diagram image from PlantUML code.

Converts PlantUML text descriptions into visual diagrams: sequence, class,
use case, activity, component, state, object and deployment diagrams.
@startuml/@enduml markers are added automatically when missing. PNG output
gets high-DPI quality directives injected.

Example uml_code: "Alice -> Bob: Hello\nBob --> Alice: Hi!"

Returns the rendered image as image content (PNG or SVG).`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uml_code": map[string]any{
						"type":        "string",
						"description": "PlantUML source describing the diagram. @startuml/@enduml markers are optional.",
					},
					"format_type": map[string]any{
						"type":        "string",
						"description": "Output format. 'png' is a high-quality bitmap, 'svg' scales without loss.",
						"enum":        []string{"png", "svg"},
						"default":     "png",
					},
					"timeout": map[string]any{
						"type":        "integer",
						"description": "Render timeout in seconds.",
						"default":     30,
						"minimum":     1,
						"maximum":     300,
					},
				},
				"required": []string{"uml_code"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
			},
		},
		instrumented("generate_plantuml_image", s.handleGenerateImage),
	)
}

func (s *Server) handleGenerateImage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UMLCode    string `json:"uml_code"`
		FormatType string `json:"format_type"`
		Timeout    int    `json:"timeout"`
	}
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.UMLCode == "" {
		return errorResult("uml_code is required"), nil
	}

	format := plantuml.ParseFormat(args.FormatType)
	if args.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(args.Timeout)*time.Second)
		defer cancel()
	}

	image, err := s.render(ctx, args.UMLCode, format)
	if err != nil {
		return errorResult(fmt.Sprintf("error generating diagram: %v", err)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: image, MIMEType: format.MIMEType()},
		},
	}, nil
}

// render is the full tool-level render path: prepare, encode, cached fetch.
func (s *Server) render(ctx context.Context, source string, format plantuml.Format) ([]byte, error) {
	ctx, span := tracing.RenderSpan(ctx, string(format), len(source))
	defer span.End()

	start := time.Now()
	prepared := plantuml.PrepareSource(source, format)
	token, err := plantuml.Encode(prepared)
	if err != nil {
		metrics.RendersTotal.WithLabelValues(string(format), "error").Inc()
		span.RecordError(err)
		return nil, err
	}
	metrics.EncodedTokenBytes.Observe(float64(len(token)))

	image, err := s.renderToken(ctx, token, format)
	metrics.RenderDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RendersTotal.WithLabelValues(string(format), "error").Inc()
		span.RecordError(err)
		return nil, err
	}
	metrics.RendersTotal.WithLabelValues(string(format), "ok").Inc()
	return image, nil
}

// --- validate_plantuml_syntax ---

func (s *Server) addValidateSyntaxTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "validate_plantuml_syntax",
			Title: "Validate PlantUML Syntax",
			Description: `Check whether PlantUML code is syntactically correct by attempting a render.

Use this to catch syntax errors before generating a full diagram.

Returns JSON: {"valid": true} or {"valid": false, "error": "..."}.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uml_code": map[string]any{
						"type":        "string",
						"description": "The PlantUML code to validate.",
					},
				},
				"required": []string{"uml_code"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
			},
		},
		instrumented("validate_plantuml_syntax", s.handleValidateSyntax),
	)
}

func (s *Server) handleValidateSyntax(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UMLCode string `json:"uml_code"`
	}
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.UMLCode == "" {
		return errorResult("uml_code is required"), nil
	}

	// Validation delegates to an SVG render; the codec alone cannot judge
	// diagram-language syntax.
	if _, err := s.render(ctx, args.UMLCode, plantuml.FormatSVG); err != nil {
		return jsonResult(plantuml.ValidationResult{Valid: false, Error: err.Error()})
	}
	return jsonResult(plantuml.ValidationResult{Valid: true})
}

// --- encode_plantuml ---

func (s *Server) addEncodeTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "encode_plantuml",
			Title: "Encode PlantUML Text",
			Description: `Encode PlantUML text into the URL-safe token used by PlantUML servers.

The token is deflate-compressed and re-encoded over the PlantUML alphabet,
making it safe to embed in a URL path without percent-encoding. No markers
or directives are added; the text is encoded exactly as given.

Returns JSON with the token and the ready-to-use render URLs.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uml_code": map[string]any{
						"type":        "string",
						"description": "The PlantUML text to encode, verbatim.",
					},
				},
				"required": []string{"uml_code"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
			},
		},
		instrumented("encode_plantuml", s.handleEncode),
	)
}

func (s *Server) handleEncode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		UMLCode string `json:"uml_code"`
	}
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	token, err := plantuml.Encode(args.UMLCode)
	if err != nil {
		return errorResult(fmt.Sprintf("encode failed: %v", err)), nil
	}
	metrics.EncodedTokenBytes.Observe(float64(len(token)))

	return jsonResult(map[string]string{
		"token":   token,
		"svg_url": s.client.DiagramURL(token, plantuml.FormatSVG),
		"png_url": s.client.DiagramURL(token, plantuml.FormatPNG),
	})
}

// --- decode_plantuml ---

func (s *Server) addDecodeTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "decode_plantuml",
			Title: "Decode PlantUML Token",
			Description: `Decode a PlantUML URL token back into the original diagram text.

Accepts the token portion of a PlantUML server URL (the part after /svg/ or
/png/). Fails with a descriptive error for tokens containing characters
outside the PlantUML alphabet or carrying a corrupt payload.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"token": map[string]any{
						"type":        "string",
						"description": "The encoded diagram token.",
					},
				},
				"required": []string{"token"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
			},
		},
		instrumented("decode_plantuml", s.handleDecode),
	)
}

func (s *Server) handleDecode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Token string `json:"token"`
	}
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Token == "" {
		return errorResult("token is required"), nil
	}

	text, err := plantuml.Decode(args.Token)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(text), nil
}
