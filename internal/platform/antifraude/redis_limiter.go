package antifraude

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// Limits configura as duas janelas fixas do limitador.
// Zero em PerUser ou OriginFailures desliga a respectiva checagem.
type Limits struct {
	PerUser        int
	OriginFailures int
	Window         time.Duration
	Prefix         string
}

// RedisRateLimiter conta tentativas de submissão por eleitor e cédulas recusadas por
// origem. Uma origem que esgota as falhas fica bloqueada para qualquer conta até a
// janela expirar.
type RedisRateLimiter struct {
	client *redis.Client
	limits Limits
}

func NewRedisRateLimiter(client *redis.Client, limits Limits) *RedisRateLimiter {
	if limits.Prefix == "" {
		limits.Prefix = "ratelimit"
	}
	return &RedisRateLimiter{client: client, limits: limits}
}

// Validar registra a tentativa do eleitor e consulta as falhas da origem numa só ida ao Redis.
func (r *RedisRateLimiter) Validar(ctx context.Context, userID domain.UserID, origem string) error {
	if r.client == nil || r.limits.Window <= 0 {
		return nil
	}

	chaveUsuario := r.userKey(userID)
	var (
		tentativas *redis.IntCmd
		falhas     *redis.StringCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if r.limits.PerUser > 0 {
			tentativas = pipe.Incr(ctx, chaveUsuario)
		}
		if r.limits.OriginFailures > 0 && origem != "" {
			falhas = pipe.Get(ctx, r.originKey(origem))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("antifraude: falha consultando contadores: %w", err)
	}

	if tentativas != nil {
		n := tentativas.Val()
		if n == 1 {
			if err := r.client.Expire(ctx, chaveUsuario, r.limits.Window).Err(); err != nil {
				return fmt.Errorf("antifraude: falha ao definir expiracao: %w", err)
			}
		}
		if n > int64(r.limits.PerUser) {
			return ErrRateLimitExceeded
		}
	}

	if falhas != nil {
		n, err := falhas.Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("antifraude: contador de origem invalido: %w", err)
		}
		if n >= int64(r.limits.OriginFailures) {
			return ErrRateLimitExceeded
		}
	}
	return nil
}

// RegistrarFalha soma uma cédula recusada à origem. Sem origem conhecida não há o que contar.
func (r *RedisRateLimiter) RegistrarFalha(ctx context.Context, _ domain.UserID, origem string) error {
	if r.client == nil || r.limits.Window <= 0 || r.limits.OriginFailures <= 0 || origem == "" {
		return nil
	}

	chave := r.originKey(origem)
	n, err := r.client.Incr(ctx, chave).Result()
	if err != nil {
		return fmt.Errorf("antifraude: falha registrando recusa: %w", err)
	}
	if n == 1 {
		if err := r.client.Expire(ctx, chave, r.limits.Window).Err(); err != nil {
			return fmt.Errorf("antifraude: falha ao definir expiracao: %w", err)
		}
	}
	return nil
}

func (r *RedisRateLimiter) userKey(userID domain.UserID) string {
	return fmt.Sprintf("%s:tentativas:%s", r.limits.Prefix, userID)
}

// O IP não fica em claro no Redis.
func (r *RedisRateLimiter) originKey(origem string) string {
	sum := sha256.Sum256([]byte(origem))
	return fmt.Sprintf("%s:falhas:%s", r.limits.Prefix, hex.EncodeToString(sum[:12]))
}

var _ domain.Antifraude = (*RedisRateLimiter)(nil)
