package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"memegen/internal/domain"
	"memegen/internal/encoder"
	"memegen/internal/infra"
	"memegen/internal/providers/genai"
	"memegen/internal/workflow"
)

func main() {
	var (
		imageFlag string
		styleFlag string
		noteFlag  string
		outFlag   string
		listFlag  bool
	)
	flag.StringVar(&imageFlag, "image", "", "Path to the source image (png, jpeg, gif or webp)")
	flag.StringVar(&styleFlag, "style", domain.DefaultStyleID, "Meme style id (see -styles)")
	flag.StringVar(&noteFlag, "note", "", "Optional text to work into the meme")
	flag.StringVar(&outFlag, "out", "meme.png", "Where to write the generated image")
	flag.BoolVar(&listFlag, "styles", false, "List the available styles and exit")
	flag.Parse()

	if listFlag {
		for _, s := range domain.Styles() {
			fmt.Printf("%-12s %s %s\n", s.ID, s.Emoji, s.Name)
		}
		return
	}

	if strings.TrimSpace(imageFlag) == "" {
		fmt.Fprintln(os.Stderr, "-image is required")
		os.Exit(2)
	}
	if _, ok := domain.LookupStyle(styleFlag); !ok {
		fmt.Fprintf(os.Stderr, "unknown style %q\n", styleFlag)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "memegen").Logger()

	client, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctrl, err := workflow.NewController(workflow.Options{
		Encoder:   encoder.New(),
		Generator: client,
		Logger:    &logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	file, err := encoder.NewDiskFile(imageFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := ctrl.SelectFile(file); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctrl.SelectStyle(styleFlag)
	ctrl.SetNote(noteFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Generating %s meme from %s...\n", styleFlag, file.Name())
	state, err := ctrl.Generate(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, state.Error)
		os.Exit(1)
	}
	path, data, mediaType, convErr := output(outFlag, *state.Result)
	if convErr != nil {
		fmt.Fprintf(os.Stderr, "could not convert result to PNG, keeping %s: %v\n", mediaType, convErr)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes, %s)\n", path, len(data), mediaType)
}

// output converts the result to PNG for path. When the result cannot be
// decoded the original bytes are kept and the extension follows their type.
func output(path string, img domain.GeneratedImage) (string, []byte, string, error) {
	data, err := encoder.ToPNG(img)
	if err == nil {
		return path, data, domain.MediaTypePNG, nil
	}
	mediaType := domain.NormalizeMediaType(img.MediaType)
	return strings.TrimSuffix(path, filepath.Ext(path)) + encoder.ExtensionForMIME(mediaType), img.Data, mediaType, err
}
