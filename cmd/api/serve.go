package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	"github.com/ASHISH26940/vidface-api/pkg/handlers"
	"github.com/ASHISH26940/vidface-api/pkg/llm"
	"github.com/ASHISH26940/vidface-api/pkg/security"
	"github.com/ASHISH26940/vidface-api/pkg/storage"
	"github.com/ASHISH26940/vidface-api/pkg/video"
	"github.com/ASHISH26940/vidface-api/pkg/voice"
	"github.com/ASHISH26940/vidface-api/pkg/worker"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	httpShutdownTimeout = 5 * time.Second
	poolShutdownTimeout = 30 * time.Second
	interruptedMessage  = "generation interrupted by server restart"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the generation workers",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Infof("Starting %s...", cfg.AppName)
	if servePort != "" {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		return err
	}
	defer db.CloseDB()
	if err := db.Migrate(ctx, db.DB); err != nil {
		return err
	}
	store := queries.NewStore(db.DB)

	var ledger security.Ledger = security.NewMemoryLedger()
	if cfg.RedisURL != "" {
		redisLedger, err := security.NewRedisLedgerFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisLedger.Close()
		ledger = redisLedger
		log.Info("Rate-limit and login ledgers are shared through Redis.")
	} else {
		// Single instance: nothing else can be running these jobs.
		n, err := store.FailInterruptedVideos(ctx, interruptedMessage)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Warnf("Marked %d interrupted videos as failed.", n)
		}
	}

	artifacts, err := storage.NewLocalStore(cfg.VideoOutputDir)
	if err != nil {
		return err
	}
	synth := voice.NewSynthesizerFromConfig(cfg)
	log.Infof("Speech providers: %v", synth.Providers())

	runner := video.ExecRunner{}
	pipeline := video.NewPipeline(store, synth,
		video.NewAssembler(runner, cfg.FFmpegCandidates, cfg.VideoWorkDir),
		video.NewInspector(runner, cfg.FFprobeCandidates),
		artifacts)

	apiHandlers := handlers.NewHandlers(cfg, store, ledger)
	apiHandlers.Voices = synth
	apiHandlers.Generator = pipeline
	apiHandlers.Artifacts = artifacts

	if cfg.ObjectStorageEnabled() {
		mirror, err := storage.NewObjectMirror(ctx, cfg)
		if err != nil {
			log.Warnf("Object storage unavailable, serving local files only: %v", err)
		} else {
			pipeline.WithMirror(mirror)
			apiHandlers.Mirror = mirror
		}
	}

	if cfg.GeminiAPIKey != "" {
		gen, err := llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return err
		}
		defer gen.Close()
		apiHandlers.Scripts = llm.NewScriptWriter(gen)
	}

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	pool.Start()
	apiHandlers.Queue = pool

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: handlers.NewRouter(apiHandlers),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = pool.Shutdown(context.Background())
			return err
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	httpCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	poolCtx, cancelPool := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancelPool()
	if err := pool.Shutdown(poolCtx); err != nil {
		log.Warnf("Generation jobs still running at exit: %v", err)
	}

	log.Info("Server exited gracefully.")
	return nil
}
