package voting

import (
	"context"
	"fmt"

	"github.com/marcelojr/awards-voting/internal/domain"
)

const (
	CounterKeyTotalVotes = "votes:total"
	CounterKeyVoters     = "voters:total"
)

func CounterKeyTally(categoryID domain.CategoryID, participantID domain.ParticipantID) string {
	return fmt.Sprintf("tally:%s:%s", categoryID, participantID)
}

// ApplyEvent reflete uma cédula confirmada (ou removida) nos contadores ao vivo.
// É usado pelo serviço no modo síncrono e pelo worker no modo com fila.
// Eventos pruned descontam votos sem mexer no total de eleitores.
func ApplyEvent(ctx context.Context, counter domain.Counter, event domain.BallotEvent) error {
	if len(event.Votes) == 0 {
		return nil
	}

	var delta int64 = 1
	if event.Type == domain.BallotRemoved || event.Type == domain.BallotPruned {
		delta = -1
	}

	for _, v := range event.Votes {
		if _, err := counter.Increment(ctx, CounterKeyTally(v.CategoryID, v.ParticipantID), delta); err != nil {
			return fmt.Errorf("contador parcial: %w", err)
		}
	}
	if _, err := counter.Increment(ctx, CounterKeyTotalVotes, delta*int64(len(event.Votes))); err != nil {
		return fmt.Errorf("contador total: %w", err)
	}
	if event.Type == domain.BallotPruned {
		return nil
	}
	if _, err := counter.Increment(ctx, CounterKeyVoters, delta); err != nil {
		return fmt.Errorf("contador eleitores: %w", err)
	}
	return nil
}

func countersFromTallies(tallies []domain.Tally, voters int64) map[string]int64 {
	values := make(map[string]int64, len(tallies)+2)
	var total int64
	for _, t := range tallies {
		values[CounterKeyTally(t.CategoryID, t.ParticipantID)] = t.Total
		total += t.Total
	}
	values[CounterKeyTotalVotes] = total
	values[CounterKeyVoters] = voters
	return values
}
