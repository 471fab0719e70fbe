package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/awards-voting/internal/app/catalog"
	"github.com/marcelojr/awards-voting/internal/app/voting"
	"github.com/marcelojr/awards-voting/internal/app/worker"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/config"
)

func configTeste(t *testing.T) config.Config {
	return config.Config{
		DBDriver:               "sqlite",
		SQLitePath:             filepath.Join(t.TempDir(), "awards.db"),
		AutoMigrate:            true,
		QueueKey:               "fila:cedulas",
		CounterPrefix:          "contador",
		RateLimitMaxActions:    5,
		RateLimitWindowSeconds: 60,
		RateLimitKeyPrefix:     "ratelimit",
	}
}

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

// popular cria um admin, um eleitor e uma categoria com um participante.
func popular(t *testing.T, svc Services) (admin, eleitor domain.AuthContext, cat domain.Category, part domain.Participant) {
	t.Helper()
	ctx := context.Background()

	a, err := svc.Accounts.Register(ctx, domain.User{Email: "admin@premios.dev", Role: domain.RoleAdmin})
	require.NoError(t, err)
	u, err := svc.Accounts.Register(ctx, domain.User{Email: "ana@premios.dev"})
	require.NoError(t, err)
	admin = domain.AuthContext{UserID: a.ID, Role: a.Role}
	eleitor = domain.AuthContext{UserID: u.ID, Role: u.Role}

	cat, err = svc.Catalog.CreateCategory(ctx, admin, catalog.CategoryInput{Name: "Melhor cafeteria"})
	require.NoError(t, err)
	part, err = svc.Catalog.CreateParticipant(ctx, admin, catalog.ParticipantInput{
		Name:        "Café Central",
		Thumbnail:   "https://img.premios.dev/cafe.png",
		Direction:   "Rua das Flores, 120",
		CategoryIDs: []domain.CategoryID{cat.ID},
	})
	require.NoError(t, err)
	return admin, eleitor, cat, part
}

func TestBuild_QuandoSemRedis_DeveLerPainelDoLivro(t *testing.T) {
	ctx := context.Background()
	cfg := configTeste(t)

	db, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	svc := Build(cfg, db, nil)

	assert.Nil(t, svc.Counter)
	assert.Nil(t, svc.Queue)

	admin, eleitor, cat, part := popular(t, svc)
	require.NoError(t, svc.Voting.SubmitBallot(ctx, eleitor, []domain.BallotEntry{{CategoryID: cat.ID, ParticipantID: part.ID}}))

	stats, err := svc.Voting.LiveStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVotes)
	assert.Equal(t, int64(1), stats.Voters)
}

func TestBuild_QuandoContadoresSincronos_DeveAtualizarRedisNaHora(t *testing.T) {
	ctx := context.Background()
	cfg := configTeste(t)
	cfg.AsyncCounters = false

	db, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	svc := Build(cfg, db, setupRedis(t))

	require.NotNil(t, svc.Counter)
	assert.Nil(t, svc.Queue)

	admin, eleitor, cat, part := popular(t, svc)
	require.NoError(t, svc.Voting.SubmitBallot(ctx, eleitor, []domain.BallotEntry{{CategoryID: cat.ID, ParticipantID: part.ID}}))

	stats, err := svc.Voting.LiveStats(ctx, admin)
	require.NoError(t, err)
	require.Len(t, stats.Tallies, 1)
	assert.Equal(t, int64(1), stats.Tallies[0].Total)
	assert.Equal(t, int64(1), stats.Voters)
}

func TestBuild_QuandoContadoresAssincronos_DevePublicarNaFila(t *testing.T) {
	ctx := context.Background()
	cfg := configTeste(t)
	cfg.AsyncCounters = true
	rdb := setupRedis(t)

	db, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	svc := Build(cfg, db, rdb)
	require.NotNil(t, svc.Queue)

	_, eleitor, cat, part := popular(t, svc)
	require.NoError(t, svc.Voting.SubmitBallot(ctx, eleitor, []domain.BallotEntry{{CategoryID: cat.ID, ParticipantID: part.ID}}))

	pendentes, err := rdb.LLen(ctx, cfg.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pendentes)
}

// drenar consome a fila até ela ficar vazia pelo tempo de espera.
func drenar(t *testing.T, svc Services, espera time.Duration) {
	t.Helper()
	processor := worker.NewBallotProcessor(svc.Counter)
	ctx, cancel := context.WithTimeout(context.Background(), espera)
	defer cancel()
	_ = svc.Queue.Consume(ctx, processor.Process)
}

func TestBuild_QuandoReconstroiComFilaPendente_NaoDeveContarEmDobro(t *testing.T) {
	ctx := context.Background()
	cfg := configTeste(t)
	cfg.AsyncCounters = true
	rdb := setupRedis(t)

	db, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	svc := Build(cfg, db, rdb)
	require.NotNil(t, svc.Queue)

	admin, eleitor, cat, part := popular(t, svc)
	voto := []domain.BallotEntry{{CategoryID: cat.ID, ParticipantID: part.ID}}
	require.NoError(t, svc.Voting.SubmitBallot(ctx, eleitor, voto))

	// Act: o worker sobe com o evento ainda na fila
	require.NoError(t, svc.Voting.RebuildCounters(ctx))
	drenar(t, svc, 300*time.Millisecond)

	// Assert
	stats, err := svc.Voting.LiveStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVotes)
	assert.Equal(t, int64(1), stats.Voters)
	require.Len(t, stats.Tallies, 1)
	assert.Equal(t, int64(1), stats.Tallies[0].Total)

	// Cédulas depois da reconstrução seguem pela fila normalmente
	outro, err := svc.Accounts.Register(ctx, domain.User{Email: "bia@premios.dev"})
	require.NoError(t, err)
	require.NoError(t, svc.Voting.SubmitBallot(ctx, domain.AuthContext{UserID: outro.ID, Role: outro.Role}, voto))
	drenar(t, svc, 300*time.Millisecond)

	total, err := svc.Counter.Get(ctx, voting.CounterKeyTotalVotes)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestBuild_QuandoParticipanteApagado_DeveDescontarContadores(t *testing.T) {
	ctx := context.Background()
	cfg := configTeste(t)
	cfg.AsyncCounters = false

	db, err := OpenDatabase(ctx, cfg)
	require.NoError(t, err)
	svc := Build(cfg, db, setupRedis(t))

	admin, eleitor, cat, part := popular(t, svc)
	require.NoError(t, svc.Voting.SubmitBallot(ctx, eleitor, []domain.BallotEntry{{CategoryID: cat.ID, ParticipantID: part.ID}}))

	require.NoError(t, svc.Catalog.DeleteParticipant(ctx, admin, part.ID))

	total, err := svc.Counter.Get(ctx, voting.CounterKeyTotalVotes)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	parcial, err := svc.Counter.Get(ctx, voting.CounterKeyTally(cat.ID, part.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(0), parcial)
	eleitores, err := svc.Counter.Get(ctx, voting.CounterKeyVoters)
	require.NoError(t, err)
	assert.Equal(t, int64(1), eleitores, "a cedula continua registrada")

	// O painel do livro bate com os contadores
	sincrono := Build(cfg, db, nil)
	doLivro, err := sincrono.Voting.LiveStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), doLivro.TotalVotes)
	assert.Equal(t, int64(1), doLivro.Voters)
}
