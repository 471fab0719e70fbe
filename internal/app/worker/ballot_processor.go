// Pacote worker aplica nos contadores ao vivo os eventos de cédula vindos da fila Redis.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelojr/awards-voting/internal/app/voting"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/metrics"
)

// BallotProcessor mantém os contadores e as métricas. A cédula em si já foi gravada
// pela API antes do evento ser publicado.
type BallotProcessor struct {
	counter domain.Counter
}

func NewBallotProcessor(counter domain.Counter) *BallotProcessor {
	return &BallotProcessor{counter: counter}
}

func (p *BallotProcessor) Process(ctx context.Context, event domain.BallotEvent) error {
	start := time.Now()

	switch event.Type {
	case domain.BallotCast, domain.BallotRemoved, domain.BallotPruned:
	default:
		return fmt.Errorf("worker: tipo de evento desconhecido %q", event.Type)
	}

	if p.counter != nil {
		if err := voting.ApplyEvent(ctx, p.counter, event); err != nil {
			return fmt.Errorf("worker: aplicar evento de %s: %w", event.UserID, err)
		}
	}

	metrics.IncBallotEventProcessed(string(event.Type))
	metrics.ObserveProcessingDuration(time.Since(start).Seconds())
	return nil
}
