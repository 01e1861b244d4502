package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	server "github.com/kmmanagement/agenda/internal"
	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/config"
	"github.com/kmmanagement/agenda/internal/dashboard"
	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/metrics"
	"github.com/kmmanagement/agenda/internal/notify/kafka"
	"github.com/kmmanagement/agenda/internal/schedule"
	"github.com/kmmanagement/agenda/internal/store"
	"github.com/kmmanagement/agenda/internal/task"
	"github.com/kmmanagement/agenda/pkg/clog"
	"github.com/kmmanagement/agenda/pkg/panicerr"
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
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(!color.NoColor))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	loc, err := env.ScheduleEnv.Location()
	if err != nil {
		slog.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	repos, err := store.Open(ctx, &env.StorageEnv)
	if err != nil {
		slog.Error("failed to open storage", "type", env.StorageEnv.Type, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	// Setup metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewPromMetrics(reg)

	bus := eventbus.New()

	// Setup servers
	taskService := task.NewService(repos.Tasks, repos.Clients, schedule.NewChecker(repos.Tasks), bus, m)
	srv := server.NewServer(
		env,
		task.NewServer(taskService, repos.Clients, loc),
		client.NewServer(repos.Clients, repos.Tasks, bus),
		dashboard.NewServer(dashboard.NewService(repos.Tasks, loc, m)),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	if env.KafkaEnv.Enabled() {
		kc, err := kafka.NewClient(env.KafkaEnv.Brokers, env.KafkaEnv.Topic)
		if err != nil {
			slog.Error("failed to create kafka client", "error", err)
			os.Exit(1)
		}
		defer kc.Close()
		panicerr.Go(ctx, "kafka forwarder", kafka.NewForwarder(kc, env.KafkaEnv.Topic, bus, m).Run)
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
