package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/questdesk/questdesk/internal/agent"
	"github.com/questdesk/questdesk/internal/config"
	"github.com/questdesk/questdesk/internal/epic"
	epicrepo "github.com/questdesk/questdesk/internal/epic/repositoryimpl"
	"github.com/questdesk/questdesk/internal/event"
	"github.com/questdesk/questdesk/internal/eventbus"
	"github.com/questdesk/questdesk/internal/pullreq"
	"github.com/questdesk/questdesk/internal/question"
	questionrepo "github.com/questdesk/questdesk/internal/question/repositoryimpl"
	"github.com/questdesk/questdesk/internal/seed"
	"github.com/questdesk/questdesk/internal/sqlitedb"
	"github.com/questdesk/questdesk/internal/task"
	taskrepo "github.com/questdesk/questdesk/internal/task/repositoryimpl"
	"github.com/questdesk/questdesk/pkg/clog"

	server "github.com/questdesk/questdesk/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(clog.NewAttributesHandler(handler))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup storage
	db, err := sqlitedb.Open(ctx, env.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	directory := agent.NewDirectory()
	questionRepo := questionrepo.NewSQLiteRepository(db)
	epicRepo := epicrepo.NewSQLiteRepository(db)
	taskRepo := taskrepo.NewSQLiteRepository(db, directory)

	// Seed questions from the markdown document on boot; the repository
	// no-ops when the table is already populated.
	populateQuestions := func(ctx context.Context) {
		seeds, err := seed.ParseQuestionsFile(env.QuestionsFile)
		if err != nil {
			slog.Error("failed to parse questions file", "path", env.QuestionsFile, "error", err)
			return
		}
		inserted, err := questionRepo.Populate(ctx, seeds)
		if err != nil {
			slog.Error("failed to populate questions", "error", err)
			return
		}
		if inserted > 0 {
			slog.Info("populated questions", "count", inserted, "path", env.QuestionsFile)
		}
	}
	populateQuestions(ctx)

	// Setup servers
	creator := pullreq.NewMockCreator(env.RepoSlug, logger)
	questionServer := question.NewServer(questionRepo, bus)
	epicServer := epic.NewServer(epicRepo, bus)
	taskServer := task.NewServer(taskRepo, creator, env.RepoSlug, bus)
	agentServer := agent.NewServer(directory, taskRepo, creator, env.RepoSlug, bus)
	eventServer := event.NewServer(bus)

	srv := server.NewServer(env, questionServer, epicServer, taskServer, agentServer, eventServer)

	var wg conc.WaitGroup
	if env.WatchSeeds {
		watcher := seed.NewWatcher(env.QuestionsFile, populateQuestions)
		wg.Go(func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("seed watcher stopped", "error", err)
			}
		})
	}

	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
