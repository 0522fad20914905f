package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/foliolib/folio/internal/transform"
)

// TransformCommand runs the content pipeline over a single markup file.
type TransformCommand struct {
	InputPath  string
	OutputPath string
	Stages     string
	Language   string
	Width      int
	Height     int

	OverrideLayout bool
	OverrideFont   bool
	ReversePunct   bool
}

func NewTransformCommand() *TransformCommand {
	return &TransformCommand{}
}

func (cmd *TransformCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("transform", flag.ExitOnError)

	fs.StringVar(&cmd.InputPath, "file", "", "Path to the markup file to transform (required)")
	fs.StringVar(&cmd.OutputPath, "out", "", "Output path (default: stdout)")
	fs.StringVar(&cmd.Stages, "stages", allStageNames(), "Comma-separated transformer stages to apply")
	fs.StringVar(&cmd.Language, "lang", "", "Primary language hint for the language stage (e.g. 'en', 'zh')")
	fs.IntVar(&cmd.Width, "width", 0, "Viewport width hint for the style stage")
	fs.IntVar(&cmd.Height, "height", 0, "Viewport height hint for the style stage")
	fs.BoolVar(&cmd.OverrideLayout, "override-layout", false, "Enable layout-overriding stages (whitespace normalization)")
	fs.BoolVar(&cmd.OverrideFont, "override-font", false, "Force the reader font over embedded book fonts")
	fs.BoolVar(&cmd.ReversePunct, "reverse-punctuation", false, "Run the punctuation stage in reverse (restore halfwidth forms)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s transform -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run the content pipeline over a markup file and print the result.\n\n")
		fmt.Fprintf(os.Stderr, "Available stages (always applied in this order):\n")
		fmt.Fprintf(os.Stderr, "  %s\n\n", allStageNames())
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s transform -file chapter.xhtml -stages punctuation,sanitizer\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s transform -file chapter.xhtml -override-layout -out clean.xhtml\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.InputPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *TransformCommand) Run() error {
	content, err := os.ReadFile(cmd.InputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	tc := &transform.Context{
		BookKey:         cmd.InputPath,
		Content:         string(content),
		PrimaryLanguage: cmd.Language,
		Width:           cmd.Width,
		Height:          cmd.Height,
		ViewSettings: transform.ViewSettings{
			OverrideLayout: cmd.OverrideLayout,
			OverrideFont:   cmd.OverrideFont,
		},
		Transformers:       strings.Split(cmd.Stages, ","),
		ReversePunctuation: cmd.ReversePunct,
	}

	result, err := transform.Run(tc)
	if err != nil {
		return err
	}

	if cmd.OutputPath == "" {
		fmt.Print(result)
		return nil
	}
	if err := os.WriteFile(cmd.OutputPath, []byte(result), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(result), cmd.OutputPath)
	return nil
}

func allStageNames() string {
	names := make([]string, 0, len(transform.Catalog))
	for _, tr := range transform.Catalog {
		names = append(names, tr.Name())
	}
	return strings.Join(names, ",")
}
