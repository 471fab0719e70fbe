// Worker assíncrono que consome eventos de cédula da fila e mantém os contadores ao vivo.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/awards-voting/internal/app/bootstrap"
	"github.com/marcelojr/awards-voting/internal/app/worker"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/config"
	"github.com/marcelojr/awards-voting/internal/platform/health"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
	redisstorage "github.com/marcelojr/awards-voting/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("falha ao abrir banco", "driver", cfg.DBDriver, "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	// Aqui o Redis é obrigatório: fila e contadores vivem nele.
	redisClient, err := redisstorage.NewClient(ctx, bootstrap.RedisOptions(cfg))
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	// O worker só existe no modo com fila, independente de COUNTERS_ASYNC.
	cfg.AsyncCounters = true
	svc := bootstrap.Build(cfg, db, redisClient)
	queue := svc.Queue
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", health.LiveHandler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	// O livro é a fonte da verdade; eventos perdidos antes da subida são corrigidos aqui.
	// A reconstrução também descarta o backlog da fila, já contido no livro.
	if err := svc.Voting.RebuildCounters(ctx); err != nil {
		logger.Error("falha ao reconstruir contadores", "err", err)
	}

	processor := worker.NewBallotProcessor(svc.Counter)

	logger.Info("worker iniciado, aguardando cedulas", "fila", cfg.QueueKey)
	err = queue.Consume(ctx, func(ctx context.Context, event domain.BallotEvent) error {
		if err := processor.Process(ctx, event); err != nil {
			logger.Error("erro ao processar cedula", "user_id", event.UserID, "tipo", event.Type, "err", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}
