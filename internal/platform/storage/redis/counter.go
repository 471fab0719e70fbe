package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// Counter mantém as parciais ao vivo em chaves com prefixo.
type Counter struct {
	client  *redis.Client
	prefix  string
	backlog string
}

func NewCounter(client *redis.Client, prefix string) *Counter {
	return &Counter{
		client: client,
		prefix: prefix,
	}
}

// WithBacklog associa a fila de eventos que alimenta estes contadores. Reset passa a
// descartar os eventos pendentes, já refletidos no livro de onde vêm os novos valores.
func (c *Counter) WithBacklog(queueKey string) *Counter {
	c.backlog = queueKey
	return c
}

func (c *Counter) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return c.client.IncrBy(ctx, c.key(key), delta).Result()
}

func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, c.key(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

func (c *Counter) GetAll(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	// MGET evita um round-trip por categoria no painel.
	valores, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}

	resultado := make(map[string]int64, len(keys))
	for i, raw := range valores {
		if raw == nil {
			resultado[keys[i]] = 0
			continue
		}

		switch v := raw.(type) {
		case string:
			num, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("redis contador: valor invalido para %s: %w", keys[i], convErr)
			}
			resultado[keys[i]] = num
		case int64:
			resultado[keys[i]] = v
		default:
			return nil, fmt.Errorf("redis contador: tipo inesperado %T", raw)
		}
	}

	return resultado, nil
}

// Reset apaga todas as chaves do prefixo e grava os valores informados.
// Usado para reconstruir as parciais a partir do livro de votos. Com backlog
// configurado, a fila é esvaziada na mesma transação.
func (c *Counter) Reset(ctx context.Context, values map[string]int64) error {
	var existentes []string
	iter := c.client.Scan(ctx, 0, c.key("*"), 500).Iterator()
	for iter.Next(ctx) {
		existentes = append(existentes, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis contador: varrer chaves: %w", err)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(existentes) > 0 {
			pipe.Del(ctx, existentes...)
		}
		if c.backlog != "" {
			pipe.Del(ctx, c.backlog)
		}
		for k, v := range values {
			pipe.Set(ctx, c.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis contador: reconstruir: %w", err)
	}
	return nil
}

func (c *Counter) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return fmt.Sprintf("%s:%s", c.prefix, k)
}

var _ domain.Counter = (*Counter)(nil)
