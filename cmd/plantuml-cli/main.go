package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	plantuml "plantuml-go"
	"plantuml-go/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := logging.NewLogger("info", "text", "plantuml-cli")
	slog.SetDefault(logger)

	encodeCmd := flag.NewFlagSet("encode", flag.ExitOnError)
	encodeWrap := encodeCmd.Bool("wrap", false, "Wrap the text in @startuml/@enduml markers before encoding")
	encodeFormat := encodeCmd.String("format", "svg", "Target format used for directive injection when wrapping: svg, png")

	decodeCmd := flag.NewFlagSet("decode", flag.ExitOnError)

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	renderFormat := renderCmd.String("format", "png", "Output format: png, svg")
	renderOut := renderCmd.String("o", "", "Output file (default: diagram.<format>)")
	renderServer := renderCmd.String("server", "", "PlantUML server base URL (default: $PLANTUML_SERVER or local)")

	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateServer := validateCmd.String("server", "", "PlantUML server base URL")

	urlCmd := flag.NewFlagSet("url", flag.ExitOnError)
	urlFormat := urlCmd.String("format", "svg", "Output format: png, svg")
	urlServer := urlCmd.String("server", "", "PlantUML server base URL")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "encode":
		encodeCmd.Parse(os.Args[2:])
		text := readSource(encodeCmd.Args())
		if *encodeWrap {
			text = plantuml.PrepareSource(text, plantuml.ParseFormat(*encodeFormat))
		}
		token, err := plantuml.Encode(text)
		if err != nil {
			slog.Error("encode failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(token)

	case "decode":
		decodeCmd.Parse(os.Args[2:])
		if decodeCmd.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: plantuml-cli decode <token>")
			os.Exit(1)
		}
		text, err := plantuml.Decode(decodeCmd.Arg(0))
		if err != nil {
			slog.Error("decode failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(text)

	case "render":
		renderCmd.Parse(os.Args[2:])
		source := readSource(renderCmd.Args())
		format := plantuml.ParseFormat(*renderFormat)

		client := plantuml.NewClient(serverURL(*renderServer))
		image, err := client.Render(ctx, source, format)
		if err != nil {
			slog.Error("render failed", "err", err)
			os.Exit(1)
		}

		out := *renderOut
		if out == "" {
			out = "diagram." + string(format)
		}
		if err := os.WriteFile(out, image, 0o644); err != nil {
			slog.Error("failed to write image", "path", out, "err", err)
			os.Exit(1)
		}
		slog.Info("diagram written", "path", out, "bytes", len(image))

	case "validate":
		validateCmd.Parse(os.Args[2:])
		source := readSource(validateCmd.Args())

		client := plantuml.NewClient(serverURL(*validateServer))
		result := client.Validate(ctx, source)
		if !result.Valid {
			fmt.Fprintf(os.Stderr, "invalid: %s\n", result.Error)
			os.Exit(1)
		}
		fmt.Println("valid")

	case "url":
		urlCmd.Parse(os.Args[2:])
		source := readSource(urlCmd.Args())
		format := plantuml.ParseFormat(*urlFormat)

		token, err := plantuml.Encode(plantuml.PrepareSource(source, format))
		if err != nil {
			slog.Error("encode failed", "err", err)
			os.Exit(1)
		}
		client := plantuml.NewClient(serverURL(*urlServer))
		fmt.Println(client.DiagramURL(token, format))

	case "version":
		fmt.Printf("plantuml-cli %s (commit %s, built %s)\n", version, commit, date)

	case "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// readSource takes diagram text from the first positional argument, or from
// stdin when no argument is given.
func readSource(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		slog.Error("failed to read stdin", "err", err)
		os.Exit(1)
	}
	return string(data)
}

func serverURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("PLANTUML_SERVER")
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `plantuml-cli - PlantUML codec and renderer client

Usage:
  plantuml-cli encode [--wrap] [--format png|svg] [text]   Encode text to a URL token
  plantuml-cli decode <token>                              Decode a token back to text
  plantuml-cli render [--format png|svg] [-o file] [text]  Render a diagram to a file
  plantuml-cli validate [text]                             Check diagram syntax via the renderer
  plantuml-cli url [--format png|svg] [text]               Print the render URL for a diagram
  plantuml-cli version                                     Show version information

Diagram text is read from the first argument or from stdin.
The renderer defaults to $PLANTUML_SERVER, falling back to http://127.0.0.1:8000/plantuml/.`)
}
