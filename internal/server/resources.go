package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerResources adds the plantuml:// resources to the MCP server.
func (s *Server) registerResources() {
	s.addInfoResource()
	s.addExamplesResource()
	s.addTemplateResources()
}

func (s *Server) addInfoResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "plantuml://info",
			Name:        "PlantUML Server Info",
			Description: "Server version, renderer endpoint, and capability inventory.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			templateTypes := make([]string, 0, len(diagramTemplates))
			for name := range diagramTemplates {
				templateTypes = append(templateTypes, name)
			}
			sort.Strings(templateTypes)

			info := map[string]any{
				"name":     "plantuml",
				"version":  Version,
				"renderer": s.client.BaseURL(),
				"tools": []string{
					"generate_plantuml_image", "validate_plantuml_syntax",
					"encode_plantuml", "decode_plantuml",
				},
				"formats":   []string{"png", "svg"},
				"templates": templateTypes,
			}
			data, _ := json.MarshalIndent(info, "", "  ")
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: "plantuml://info", MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}

func (s *Server) addExamplesResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         "plantuml://examples",
			Name:        "PlantUML Examples",
			Description: "Example diagram sources covering common diagram types.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			data, _ := json.MarshalIndent(exampleDiagrams, "", "  ")
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: "plantuml://examples", MIMEType: "application/json", Text: string(data)},
				},
			}, nil
		},
	)
}

func (s *Server) addTemplateResources() {
	for name, template := range diagramTemplates {
		uri := fmt.Sprintf("plantuml://templates/%s", name)
		template := template
		s.mcp.AddResource(
			&mcp.Resource{
				URI:         uri,
				Name:        fmt.Sprintf("%s diagram template", name),
				Description: fmt.Sprintf("Starter PlantUML source for a %s diagram.", name),
				MIMEType:    "text/plain",
			},
			func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
				return &mcp.ReadResourceResult{
					Contents: []*mcp.ResourceContents{
						{URI: uri, MIMEType: "text/plain", Text: template},
					},
				}, nil
			},
		)
	}
}
