// Pacote health expõe as sondas de liveness e readiness usadas pelo orquestrador.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probe verifica uma dependência; erro significa indisponível.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	check Probe
}

// Checker roda as sondas em ordem e para na primeira falha.
type Checker struct {
	probes  []namedProbe
	timeout time.Duration
}

// NewChecker registra as sondas de banco e Redis. Dependências nulas são ignoradas,
// o que permite subir a API sem Redis quando os contadores estão desligados.
func NewChecker(db *sql.DB, rdb *redis.Client) *Checker {
	c := &Checker{timeout: 2 * time.Second}
	if db != nil {
		c.With("database", db.PingContext)
	}
	if rdb != nil {
		c.With("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	return c
}

func (c *Checker) With(name string, probe Probe) *Checker {
	c.probes = append(c.probes, namedProbe{name: name, check: probe})
	return c
}

type relatorio struct {
	Status string            `json:"status"`
	Falha  string            `json:"falha,omitempty"`
	Checks map[string]string `json:"checks"`
}

// LiveHandler só confirma que o processo responde.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		rel := relatorio{Status: "ok", Checks: make(map[string]string, len(c.probes))}
		status := http.StatusOK
		for _, p := range c.probes {
			if err := p.check(ctx); err != nil {
				rel.Status = "indisponivel"
				rel.Falha = p.name
				rel.Checks[p.name] = err.Error()
				status = http.StatusServiceUnavailable
				break
			}
			rel.Checks[p.name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(rel)
	}
}
