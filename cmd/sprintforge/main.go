package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sourcegraph/conc"

	server "github.com/an4xdev/SprintForge/internal"
	"github.com/an4xdev/SprintForge/internal/config"
	"github.com/an4xdev/SprintForge/internal/database"
	"github.com/an4xdev/SprintForge/internal/eventbus"
	"github.com/an4xdev/SprintForge/internal/live"
	"github.com/an4xdev/SprintForge/internal/notification"
	projectrepo "github.com/an4xdev/SprintForge/internal/project/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/sprint"
	sprintrepo "github.com/an4xdev/SprintForge/internal/sprint/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/task"
	taskrepo "github.com/an4xdev/SprintForge/internal/task/repositoryimpl"
	"github.com/an4xdev/SprintForge/internal/taskhistory"
	historyrepo "github.com/an4xdev/SprintForge/internal/taskhistory/repositoryimpl"
	teamrepo "github.com/an4xdev/SprintForge/internal/team/repositoryimpl"
	userrepo "github.com/an4xdev/SprintForge/internal/user/repositoryimpl"
	"github.com/an4xdev/SprintForge/pkg/clog"
	"github.com/an4xdev/SprintForge/pkg/storage"
)

var (
	app = kingpin.New("sprintforge", "Task and sprint tracking backend")

	serveCmd     = app.Command("serve", "Run the HTTP API").Default()
	serveMigrate = serveCmd.Flag("migrate", "Apply the schema before serving").Default("true").Bool()

	migrateCmd = app.Command("migrate", "Apply the schema and seed data, then exit")

	spoolCmd      = app.Command("spool", "Inspect undeliverable notifications")
	spoolListCmd  = spoolCmd.Command("list", "List spooled notifications")
	spoolDrainCmd = spoolCmd.Command("drain", "Try to deliver spooled notifications once")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	setupLogger(env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	switch command {
	case serveCmd.FullCommand():
		err = serve(ctx, env, *serveMigrate)
	case migrateCmd.FullCommand():
		err = migrate(ctx, env)
	case spoolListCmd.FullCommand():
		err = spoolList(ctx, env)
	case spoolDrainCmd.FullCommand():
		err = spoolDrain(ctx, env)
	}
	if err != nil {
		slog.Error(command+" failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(env *config.Env) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func openDatabase(ctx context.Context, env *config.Env) (*database.DB, error) {
	dbEnv := config.DatabaseEnvFromEnv(env)
	return database.Connect(ctx, dbEnv.Driver, dbEnv.DSN())
}

func openStorage(ctx context.Context, env *config.Env) (storage.Storage, error) {
	storageEnv := config.StorageEnvFromEnv(env)
	switch storageEnv.Type {
	case "s3":
		return storage.NewS3Storage(ctx, storageEnv.S3Bucket, storageEnv.S3Prefix, storageEnv.S3Region)
	default:
		return storage.NewLocalStorage(storageEnv.BaseDir)
	}
}

func migrate(ctx context.Context, env *config.Env) error {
	db, err := openDatabase(ctx, env)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("schema applied", "driver", db.Driver)
	return nil
}

func serve(ctx context.Context, env *config.Env, applySchema bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := openDatabase(ctx, env)
	if err != nil {
		return err
	}
	defer db.Close()
	if applySchema {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	store, err := openStorage(ctx, env)
	if err != nil {
		return fmt.Errorf("failed to open spool storage: %w", err)
	}

	// Setup event bus and notification pipeline
	rabbitEnv := config.RabbitMQEnvFromEnv(env)
	bus := eventbus.New()
	sidecar := notification.NewSidecar(bus, rabbitEnv.ServiceName)
	publisher := notification.NewAMQPPublisher(rabbitEnv)
	defer publisher.Close()
	dispatcher := notification.NewDispatcher(bus, publisher, notification.NewSpool(store), rabbitEnv.PublishRetry, rabbitEnv.RetryBackoff)
	hub := live.NewHub(bus)

	// Setup repositories
	userRepo := userrepo.NewSQLRepository(db.DB)
	teamRepo := teamrepo.NewSQLRepository(db.DB)
	projectRepo := projectrepo.NewSQLRepository(db.DB)
	sprintRepo := sprintrepo.NewSQLRepository(db.DB)
	taskRepo := taskrepo.NewSQLRepository(db)
	historyRepo := historyrepo.NewSQLRepository(db)

	// Setup services and servers
	taskService := task.NewService(taskRepo, historyRepo, userRepo, sprintRepo, sidecar)
	sprintService := sprint.NewService(sprintRepo, sprint.NewValidator(userRepo, teamRepo, projectRepo, nil), sidecar)

	health := server.NewHealthChecker(map[string]server.Pinger{
		"database": server.PingFunc(db.PingContext),
		"rabbitmq": publisher,
	})
	srv := server.NewServer(
		env,
		task.NewServer(taskService),
		taskhistory.NewServer(historyRepo),
		sprint.NewServer(sprintService),
		hub,
		health,
	)

	var wg conc.WaitGroup
	wg.Go(func() { dispatcher.Start(ctx) })
	wg.Go(func() { hub.Start(ctx) })

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}
	slog.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
	return runErr
}

func spoolList(ctx context.Context, env *config.Env) error {
	store, err := openStorage(ctx, env)
	if err != nil {
		return err
	}
	events, err := notification.NewSpool(store).List(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		fmt.Printf("%s\t%s\t%s\t%s\n", ev.ID, ev.CreatedAt.Format(time.RFC3339), ev.Kind, ev.ResourceID)
	}
	return nil
}

func spoolDrain(ctx context.Context, env *config.Env) error {
	store, err := openStorage(ctx, env)
	if err != nil {
		return err
	}
	rabbitEnv := config.RabbitMQEnvFromEnv(env)
	publisher := notification.NewAMQPPublisher(rabbitEnv)
	defer publisher.Close()

	n, err := notification.NewSpool(store).Drain(ctx, func(ctx context.Context, ev *eventbus.Event) error {
		return notification.Deliver(ctx, publisher, ev)
	})
	if err != nil {
		return err
	}
	slog.Info("spool drained", "delivered", n)
	return nil
}
