package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"enhanced-search/internal/config"
	"enhanced-search/internal/embedding"
	"enhanced-search/internal/helper"
	"enhanced-search/internal/highlight"
	"enhanced-search/internal/models"
	"enhanced-search/internal/parser"
	"enhanced-search/internal/pipeline"
	"enhanced-search/internal/rag"
	"enhanced-search/internal/session"
)

const (
	configFilePath = "./configs/config.yaml"
	fetchTimeout   = 30 * time.Second
)

const usage = `commands:
  <text>        search for text
  :n  :p        next / previous match
  :t <level>    similarity threshold (All, Low, Medium, High)
  :s            show status
  :q            quit`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	url := flag.String("url", "", "URL of the document page")
	text := flag.String("text", "", "Document text")
	query := flag.String("query", "", "Initial query")
	mode := flag.String("mode", "", "Search mode, semantic or literal (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Dry run, print the chunks and exit")
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *mode != "" {
		cfg.Search.Mode = models.SearchMode(*mode)
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid mode")
		}
	}
	setLogLevel(cfg.Log.Level)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	src, err := documentSource(*filePath, *url, *text)
	if err != nil {
		log.Fatal().Err(err).Msg("No document")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dryRun {
		printChunks(ctx, src, cfg)
		return
	}
	if err := runSession(ctx, cfg, src, *query, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Search session failed")
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("Config file not found, using defaults")
		return config.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func documentSource(filePath, url, text string) (parser.Source, error) {
	switch {
	case filePath != "" && url != "":
		return nil, fmt.Errorf("provide either -file or -url, not both")
	case filePath != "":
		return parser.FileSource{Path: filePath}, nil
	case url != "":
		return parser.NewURLSource(url, fetchTimeout), nil
	case text != "":
		return parser.StaticSource(text), nil
	}
	return nil, fmt.Errorf("provide a document with -file, -url or -text")
}

func printChunks(ctx context.Context, src parser.Source, cfg *config.Config) {
	text, err := src.Text(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}
	chunks := parser.Chunk(text, cfg.Search.ChunkSize)
	log.Info().Int("chunks", len(chunks)).Int("chunk_size", cfg.Search.ChunkSize).Msg("Parsed content")
	helper.PrettyPrint(os.Stdout, chunks)
}

func runSession(ctx context.Context, cfg *config.Config, src parser.Source, query string, in io.Reader) error {
	var embedder embedding.Embedder
	if cfg.Search.Mode == models.ModeSemantic {
		var err error
		embedder, err = embedding.NewEmbedder(&cfg.EmbedLLM)
		if err != nil {
			return fmt.Errorf("error initializing embedder: %w", err)
		}
	}

	ctrl := pipeline.NewController(pipeline.Options{ChunkSize: cfg.Search.ChunkSize, Embedder: embedder})
	defer ctrl.Close()

	sink, err := highlight.NewSink(&cfg.Highlight, os.Stdout)
	if err != nil {
		return err
	}
	if closer, ok := sink.(io.Closer); ok {
		defer closer.Close()
	}
	syncer := highlight.NewSynchronizer(sink, cfg.Highlight.Timeout)
	syncer.Start(ctx)
	defer syncer.Close()

	sess := session.New(ctrl, rag.NewResolver(&cfg.Search, ctrl), syncer, session.Options{
		Debounce:  cfg.Search.Debounce,
		Threshold: cfg.Search.Threshold,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- sess.Run(ctx) }()

	if err := sess.SetDocument(ctx, src); err != nil {
		return err
	}
	if query != "" {
		if err := sess.Input(ctx, query); err != nil {
			return err
		}
	}

	fmt.Println(usage)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-errc:
			return err
		case line, ok := <-lines:
			if !ok {
				cancel()
				return <-errc
			}
			quit, err := handleCommand(ctx, sess, line)
			if err != nil {
				log.Error().Err(err).Str("command", line).Msg("Command failed")
			}
			if quit {
				cancel()
				<-errc
				return nil
			}
		}
	}
}

func handleCommand(ctx context.Context, sess *session.Session, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case ":q":
		return true, nil
	case ":n":
		return false, sess.Next(ctx)
	case ":p":
		return false, sess.Previous(ctx)
	case ":t":
		t, err := models.ParseThreshold(arg)
		if err != nil {
			return false, err
		}
		return false, sess.SetThreshold(ctx, t)
	case ":s":
		v, err := sess.View(ctx)
		if err != nil {
			return false, err
		}
		printView(v)
		return false, nil
	}
	return false, sess.Input(ctx, line)
}

func printView(v session.View) {
	fmt.Printf("[%s] %s  threshold=%s", v.Status, v.Placeholder, v.Threshold)
	if v.ShowCounter {
		fmt.Printf("  %q %s", v.Query, v.Counter)
	}
	fmt.Println()
	for i, m := range v.Matches {
		fmt.Printf("  %d. [%d,%d) %s\n", i+1, m.Span.Start, m.Span.End, helper.Shorten(m.Text, 80))
	}
}
