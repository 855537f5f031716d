package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/api"
	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/db"
	"github.com/gyeh/claimaudit/internal/exitcode"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/metrics"
	"github.com/gyeh/claimaudit/internal/provider"
	"github.com/gyeh/claimaudit/internal/report"
	"github.com/gyeh/claimaudit/internal/rules"
	"github.com/gyeh/claimaudit/internal/session"
	"github.com/gyeh/claimaudit/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit session HTTP API",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := storage.New(ctx, storage.Config{
		Backend:  storage.Backend(cfg.Storage.Backend),
		Dir:      cfg.Storage.Dir,
		Bucket:   cfg.Storage.Bucket,
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
		Prefix:   cfg.Storage.Prefix,
	})
	if err != nil {
		log.Error().Err(err).Msg("document storage setup failed")
		os.Exit(exitcode.StorageError)
	}

	matchers, err := cfg.Matchers()
	if err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	structurer, err := provider.NewJSONStructurer()
	if err != nil {
		log.Error().Err(err).Msg("structurer setup failed")
		os.Exit(exitcode.ServerError)
	}
	letters, err := report.NewTemplateLetterWriter()
	if err != nil {
		log.Error().Err(err).Msg("letter template setup failed")
		os.Exit(exitcode.ServerError)
	}

	m := metrics.New()
	pipeline := &audit.Pipeline{
		Extractor:  provider.StoreExtractor{Store: docs},
		Structurer: structurer,
		Citator:    report.ClauseCitator{},
		Letters:    letters,
		Engine:     rules.NewEngine(rules.Options{Matchers: matchers}),
		Documents:  docs,
		Metrics:    m,
		Log:        log,
		Options: audit.Options{
			Timeout:          cfg.PipelineTimeout(),
			MinTextLen:       cfg.Pipeline.MinTextLength,
			CleanupDocuments: cfg.Pipeline.CleanupDocuments,
		},
	}

	opts := session.Options{Metrics: m, Log: log}
	if cfg.Archive.Enabled {
		if err := cfg.ValidateWithDSN(); err != nil {
			log.Error().Err(err).Msg("archive requires a database")
			os.Exit(exitcode.UsageError)
		}
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		opts.Archive = db.NewArchive(pool)
		log.Info().Msg("result archive enabled")
	}

	manager := session.NewManager(session.NewStore(), pipeline, opts)
	srv := api.NewServer(manager, docs, m, log, api.Config{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		MaxUploadBytes:    cfg.MaxUploadBytes(),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error().Err(err).Msg("http server failed")
		os.Exit(exitcode.ServerError)
	}
	return nil
}
