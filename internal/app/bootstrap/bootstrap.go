// Pacote bootstrap monta as dependências compartilhadas por api, worker e awardsctl.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/app/accounts"
	"github.com/marcelojr/awards-voting/internal/app/catalog"
	"github.com/marcelojr/awards-voting/internal/app/voting"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/antifraude"
	"github.com/marcelojr/awards-voting/internal/platform/clock"
	"github.com/marcelojr/awards-voting/internal/platform/config"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
	"github.com/marcelojr/awards-voting/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/awards-voting/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/awards-voting/internal/platform/storage/redis"
	"github.com/marcelojr/awards-voting/internal/platform/upload"
)

// OpenDatabase abre Postgres ou SQLite conforme DB_DRIVER e aplica as migrations se habilitado.
func OpenDatabase(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = postgresstorage.OpenSQLite(ctx, cfg.SQLitePath)
	default:
		db, err = postgresstorage.Open(ctx, cfg.PostgresDSN())
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			return nil, fmt.Errorf("migracao automatica: %w", err)
		}
	}
	return db, nil
}

// RedisOptions traduz a configuração para os parâmetros do pool.
func RedisOptions(cfg config.Config) redisstorage.Options {
	return redisstorage.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		PoolSize:    cfg.RedisPoolSize,
		PoolTimeout: time.Duration(cfg.RedisPoolTimeoutSeconds) * time.Second,
	}
}

// OpenRedis devolve nil quando o Redis não responde: a API segue funcionando
// com contadores lidos do livro e sem limite de tentativas.
func OpenRedis(ctx context.Context, cfg config.Config) *redis.Client {
	client, err := redisstorage.NewClient(ctx, RedisOptions(cfg))
	if err != nil {
		logger.Warn("redis indisponivel, seguindo sem contadores ao vivo", "addr", cfg.RedisAddr, "err", err)
		return nil
	}
	return client
}

// Services reúne os serviços de aplicação já ligados aos repositórios.
type Services struct {
	Voting   *voting.Service
	Catalog  *catalog.Service
	Accounts *accounts.Service
	Queue    *redisstorage.BallotQueue
	Counter  *redisstorage.Counter
}

// Build liga repositórios GORM, contadores/fila Redis, antifraude e upload aos serviços.
// Com rdb nil, contadores e fila ficam desligados.
func Build(cfg config.Config, db *gorm.DB, rdb *redis.Client) Services {
	categories := postgresstorage.NewCategoryRepository(db)
	participants := postgresstorage.NewParticipantRepository(db)
	votes := postgresstorage.NewVoteRepository(db)
	logs := postgresstorage.NewActivityLogRepository(db)
	users := postgresstorage.NewUserRepository(db)
	settings := postgresstorage.NewSettingsRepository(db)
	relogio := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	var (
		svc       Services
		counter   domain.Counter
		queue     domain.BallotQueue
		antifraud domain.Antifraude    = antifraude.NewPermissivo()
		uploader  domain.ImageUploader = upload.NewPassthrough()
	)

	if rdb != nil {
		// A fila pertence aos contadores mesmo no modo síncrono: reconstruir descarta o backlog.
		svc.Counter = redisstorage.NewCounter(rdb, cfg.CounterPrefix).WithBacklog(cfg.QueueKey)
		counter = svc.Counter
		if cfg.AsyncCounters {
			svc.Queue = redisstorage.NewBallotQueue(rdb, cfg.QueueKey)
			queue = svc.Queue
		}
		if cfg.RateLimitEnabled {
			antifraud = antifraude.NewRedisRateLimiter(rdb, antifraude.Limits{
				PerUser:        cfg.RateLimitMaxActions,
				OriginFailures: cfg.RateLimitOriginFailures,
				Window:         time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
				Prefix:         cfg.RateLimitKeyPrefix,
			})
		}
	}

	if cfg.UploadEndpoint != "" {
		timeout := time.Duration(cfg.UploadTimeoutSeconds) * time.Second
		uploader = upload.NewHTTPUploader(cfg.UploadEndpoint, cfg.UploadAPIKey, timeout)
	}

	svc.Voting = voting.NewService(categories, participants, votes, settings, counter, queue, antifraud, relogio, idGen)
	svc.Catalog = catalog.NewService(categories, participants, settings, uploader, svc.Voting, relogio, idGen)
	svc.Accounts = accounts.NewService(users, votes, logs, svc.Voting, relogio, idGen)
	return svc
}
