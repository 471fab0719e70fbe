package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
)

var errConcluido = errors.New("processamento concluido")

func TestBallotQueue_PublishEConsume_QuandoValido_DeveEntregarEvento(t *testing.T) {
	client, _ := setupRedis(t)
	queue := NewBallotQueue(client, "fila:cedulas")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Arrange
	gen := ids.NewGenerator()
	evento := domain.BallotEvent{
		Type:   domain.BallotCast,
		UserID: domain.UserID(gen.New()),
		Votes: []domain.BallotEntry{
			{CategoryID: domain.CategoryID(gen.New()), ParticipantID: domain.ParticipantID(gen.New())},
			{CategoryID: domain.CategoryID(gen.New()), ParticipantID: domain.ParticipantID(gen.New())},
		},
	}

	var recebido *domain.BallotEvent
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := queue.Consume(ctx, func(_ context.Context, e domain.BallotEvent) error {
			recebido = &e
			return errConcluido
		})
		assert.ErrorIs(t, err, errConcluido)
	}()

	time.Sleep(100 * time.Millisecond)

	// Act
	require.NoError(t, queue.Publish(ctx, evento))
	wg.Wait()

	// Assert
	require.NotNil(t, recebido)
	assert.Equal(t, evento, *recebido)
}

func TestBallotQueue_Consume_QuandoMultiplosEventos_DeveManterOrdem(t *testing.T) {
	client, _ := setupRedis(t)
	queue := NewBallotQueue(client, "fila:cedulas")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	user := domain.UserID(ids.NewGenerator().New())
	eventos := []domain.BallotEvent{
		{Type: domain.BallotCast, UserID: user},
		{Type: domain.BallotRemoved, UserID: user},
	}
	for _, e := range eventos {
		require.NoError(t, queue.Publish(ctx, e))
	}

	var recebidos []domain.BallotEventType
	err := queue.Consume(ctx, func(_ context.Context, e domain.BallotEvent) error {
		recebidos = append(recebidos, e.Type)
		if len(recebidos) == len(eventos) {
			return errConcluido
		}
		return nil
	})

	assert.ErrorIs(t, err, errConcluido)
	assert.Equal(t, []domain.BallotEventType{domain.BallotCast, domain.BallotRemoved}, recebidos)
}

func TestBallotQueue_Consume_QuandoFilaVazia_DeveTerminarPeloContexto(t *testing.T) {
	client, _ := setupRedis(t)
	queue := NewBallotQueue(client, "fila:cedulas")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	var recebidos int
	err := queue.Consume(ctx, func(context.Context, domain.BallotEvent) error {
		recebidos++
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, recebidos)
}

func TestBallotQueue_Consume_QuandoPayloadInvalido_DeveRetornarErro(t *testing.T) {
	client, mr := setupRedis(t)
	queue := NewBallotQueue(client, "fila:cedulas")

	_, err := mr.Lpush("fila:cedulas", "{nao-e-json")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = queue.Consume(ctx, func(context.Context, domain.BallotEvent) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload invalido")
}
