// Pacote redis implementa a fila de cédulas e os contadores ao vivo sobre Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// BallotQueue usa uma lista Redis para levar eventos de cédula até o worker.
type BallotQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewBallotQueue(client *redis.Client, key string) *BallotQueue {
	return &BallotQueue{
		client:  client,
		key:     key,
		timeout: 5 * time.Second,
	}
}

func (q *BallotQueue) Publish(ctx context.Context, event domain.BallotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis fila: falha serializando cedula: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: falha ao enfileirar cedula: %w", err)
	}
	return nil
}

func (q *BallotQueue) Consume(ctx context.Context, handler func(context.Context, domain.BallotEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// BRPOP com timeout curto para voltar a olhar o contexto.
		res, err := q.client.BRPop(ctx, q.timeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis fila: falha ao consumir cedula: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var event domain.BallotEvent
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			return fmt.Errorf("redis fila: payload invalido: %w", err)
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

var _ domain.BallotQueue = (*BallotQueue)(nil)
