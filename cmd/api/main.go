// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/awards-voting/internal/app/bootstrap"
	"github.com/marcelojr/awards-voting/internal/app/httpapi"
	"github.com/marcelojr/awards-voting/internal/platform/config"
	"github.com/marcelojr/awards-voting/internal/platform/health"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
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

	// Sem Redis a API continua: painel lido do livro e antifraude desligado.
	redisClient := bootstrap.OpenRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := bootstrap.Build(cfg, db, redisClient)
	if svc.Queue == nil {
		// Sem worker consumindo, os contadores são reconstruídos aqui na subida.
		if err := svc.Voting.RebuildCounters(ctx); err != nil {
			logger.Warn("falha ao reconstruir contadores", "err", err)
		}
	}

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)
	mux.HandleFunc("GET /healthz", health.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	api := httpapi.New(svc.Voting, svc.Catalog, svc.Accounts, logger.L()).WithTrustedProxies(cfg.TrustedProxies)
	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           api.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "driver", cfg.DBDriver, "fila", svc.Queue != nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
