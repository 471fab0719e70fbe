// Pacote voting implementa as regras da votação: submissão de cédula, consulta e
// remoção de votos, previsões por categoria e parciais ao vivo.
package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/antifraude"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
	"github.com/marcelojr/awards-voting/internal/platform/metrics"
)

var (
	ErrBallotInvalido              = errors.New("cedula invalida")
	ErrCategoriaDesconhecida       = errors.New("categoria nao encontrada")
	ErrParticipanteForaDaCategoria = errors.New("participante nao pertence a categoria")
)

type origemKey struct{}

// WithOrigem anexa ao contexto a origem da requisição (IP do cliente), usada pelo antifraude.
func WithOrigem(ctx context.Context, origem string) context.Context {
	return context.WithValue(ctx, origemKey{}, origem)
}

func origemFrom(ctx context.Context) string {
	origem, _ := ctx.Value(origemKey{}).(string)
	return origem
}

// Service concentra as regras de votação e delega acesso a repositórios, fila e contadores.
type Service struct {
	categories   domain.CategoryRepository
	participants domain.ParticipantRepository
	votes        domain.VoteRepository
	settings     domain.SettingsRepository
	counter      domain.Counter
	queue        domain.BallotQueue
	antifraude   domain.Antifraude
	clock        domain.Clock
	ids          domain.IDGenerator
}

func NewService(
	categories domain.CategoryRepository,
	participants domain.ParticipantRepository,
	votes domain.VoteRepository,
	settings domain.SettingsRepository,
	counter domain.Counter,
	queue domain.BallotQueue,
	antifraude domain.Antifraude,
	clock domain.Clock,
	idsGen domain.IDGenerator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		categories:   categories,
		participants: participants,
		votes:        votes,
		settings:     settings,
		counter:      counter,
		queue:        queue,
		antifraude:   antifraude,
		clock:        clock,
		ids:          idsGen,
	}
}

// SubmitBallot valida a cédula inteira e grava todos os votos de uma vez.
// A unicidade por usuário é garantida pelo banco, não por trava em memória.
// Cédulas inválidas ou repetidas contam como falha da origem no antifraude.
func (s *Service) SubmitBallot(ctx context.Context, auth domain.AuthContext, entries []domain.BallotEntry) error {
	err := s.submitBallot(ctx, auth, entries)
	status := ballotStatus(err)
	metrics.ObserveBallotRequest(status)
	if (status == "invalida" || status == "ja_votou") && s.antifraude != nil {
		if ferr := s.antifraude.RegistrarFalha(ctx, auth.UserID, origemFrom(ctx)); ferr != nil {
			logger.Warn("falha ao registrar recusa no antifraude", "user_id", auth.UserID, "erro", ferr)
		}
	}
	return err
}

func (s *Service) submitBallot(ctx context.Context, auth domain.AuthContext, entries []domain.BallotEntry) error {
	if err := auth.RequireUser(); err != nil {
		return err
	}
	if err := validarCedula(entries); err != nil {
		return err
	}

	categorias, err := s.categories.List(ctx)
	if err != nil {
		return err
	}
	if err := validarPertencimento(categorias, entries); err != nil {
		return err
	}

	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, auth.UserID, origemFrom(ctx)); err != nil {
			return err
		}
	}

	agora := s.clock.Now()
	votos := make([]domain.Vote, len(entries))
	for i, e := range entries {
		votos[i] = domain.Vote{
			ID:            domain.VoteID(s.ids.New()),
			UserID:        auth.UserID,
			CategoryID:    e.CategoryID,
			ParticipantID: e.ParticipantID,
			CriadoEm:      agora,
		}
	}

	invoker := auth.UserID
	registro := domain.ActivityLog{
		ID:        domain.LogID(s.ids.New()),
		Type:      domain.LogVote,
		InvokerID: &invoker,
		CriadoEm:  agora,
	}

	if err := s.votes.SubmitBallot(ctx, auth.UserID, votos, registro); err != nil {
		return err
	}

	s.Notify(ctx, domain.BallotEvent{Type: domain.BallotCast, UserID: auth.UserID, Votes: entries})
	return nil
}

// Notify leva o evento para a fila (ou direto para os contadores). Falhas aqui não
// desfazem a cédula: o livro é a fonte da verdade e RebuildCounters reconcilia.
func (s *Service) Notify(ctx context.Context, event domain.BallotEvent) {
	if s.queue != nil {
		if err := s.queue.Publish(ctx, event); err != nil {
			logger.Warn("falha ao publicar evento de cedula", "user_id", event.UserID, "tipo", event.Type, "erro", err)
		}
		return
	}
	if s.counter != nil {
		if err := ApplyEvent(ctx, s.counter, event); err != nil {
			logger.Warn("falha ao atualizar contadores", "user_id", event.UserID, "tipo", event.Type, "erro", err)
		}
	}
}

func (s *Service) MyVotes(ctx context.Context, auth domain.AuthContext) ([]domain.Vote, error) {
	if err := auth.RequireUser(); err != nil {
		return nil, err
	}
	return s.votes.ListByUser(ctx, auth.UserID)
}

func (s *Service) HasVoted(ctx context.Context, auth domain.AuthContext) (bool, error) {
	if err := auth.RequireUser(); err != nil {
		return false, err
	}
	return s.votes.HasVoted(ctx, auth.UserID)
}

func (s *Service) VotesForUser(ctx context.Context, auth domain.AuthContext, userID domain.UserID) ([]domain.Vote, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.votes.ListByUser(ctx, userID)
}

func (s *Service) HasVotes(ctx context.Context, auth domain.AuthContext, userID domain.UserID) (bool, error) {
	if err := auth.RequireAdmin(); err != nil {
		return false, err
	}
	return s.votes.HasVoted(ctx, userID)
}

// RemoveVotes apaga os votos do usuário e libera nova votação. O log de atividades fica intacto.
func (s *Service) RemoveVotes(ctx context.Context, auth domain.AuthContext, userID domain.UserID) (int64, error) {
	if err := auth.RequireAdmin(); err != nil {
		return 0, err
	}

	removidos, err := s.votes.RemoveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(removidos) == 0 {
		return 0, nil
	}

	entries := make([]domain.BallotEntry, len(removidos))
	for i, v := range removidos {
		entries[i] = domain.BallotEntry{CategoryID: v.CategoryID, ParticipantID: v.ParticipantID}
	}
	s.Notify(ctx, domain.BallotEvent{Type: domain.BallotRemoved, UserID: userID, Votes: entries})

	logger.Info("votos removidos", "user_id", userID, "admin_id", auth.UserID, "total", len(removidos))
	return int64(len(removidos)), nil
}

// Predictions devolve, para cada categoria, o participante mais votado segundo o livro.
// Empates ficam com o menor id de participante; categoria sem votos vem com Leader nulo.
// Só contam votos em participantes que ainda pertencem à categoria.
func (s *Service) Predictions(ctx context.Context, auth domain.AuthContext) ([]domain.Prediction, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	inicio := time.Now()
	defer func() {
		metrics.ObservePredictionDuration(time.Since(inicio).Seconds())
	}()

	categorias, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	totais, err := s.votes.TotalsByParticipant(ctx)
	if err != nil {
		return nil, err
	}
	participantes, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}

	porID := make(map[domain.ParticipantID]domain.Participant, len(participantes))
	for _, p := range participantes {
		porID[p.ID] = p
	}

	type lider struct {
		id    domain.ParticipantID
		total int64
	}
	// Votos antigos de quem saiu da categoria continuam no livro, mas não elegem líder.
	membros := make(map[domain.CategoryID]map[domain.ParticipantID]struct{}, len(categorias))
	for _, c := range categorias {
		set := make(map[domain.ParticipantID]struct{}, len(c.ParticipantIDs))
		for _, pid := range c.ParticipantIDs {
			set[pid] = struct{}{}
		}
		membros[c.ID] = set
	}

	lideres := make(map[domain.CategoryID]lider)
	for _, t := range totais {
		if _, ok := porID[t.ParticipantID]; !ok || t.Total <= 0 {
			continue
		}
		if _, ok := membros[t.CategoryID][t.ParticipantID]; !ok {
			continue
		}
		atual, ok := lideres[t.CategoryID]
		if !ok || t.Total > atual.total || (t.Total == atual.total && t.ParticipantID < atual.id) {
			lideres[t.CategoryID] = lider{id: t.ParticipantID, total: t.Total}
		}
	}

	resultado := make([]domain.Prediction, len(categorias))
	for i, c := range categorias {
		resultado[i] = domain.Prediction{Category: c}
		if l, ok := lideres[c.ID]; ok {
			p := porID[l.id]
			resultado[i].Leader = &p
			resultado[i].VoteCount = l.total
		}
	}
	return resultado, nil
}

// LiveStats monta o painel a partir dos contadores Redis; sem contadores, lê do livro.
func (s *Service) LiveStats(ctx context.Context, auth domain.AuthContext) (domain.Stats, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Stats{}, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	var stats domain.Stats
	if s.counter != nil {
		stats, err = s.statsFromCounters(ctx)
	} else {
		stats, err = s.statsFromLedger(ctx)
	}
	if err != nil {
		return domain.Stats{}, err
	}
	stats.VoteGoal = cfg.VoteGoal
	return stats, nil
}

func (s *Service) statsFromCounters(ctx context.Context) (domain.Stats, error) {
	categorias, err := s.categories.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	var pares []domain.Tally
	chaves := []string{CounterKeyTotalVotes, CounterKeyVoters}
	for _, c := range categorias {
		for _, pid := range c.ParticipantIDs {
			pares = append(pares, domain.Tally{CategoryID: c.ID, ParticipantID: pid})
			chaves = append(chaves, CounterKeyTally(c.ID, pid))
		}
	}

	valores, err := s.counter.GetAll(ctx, chaves)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("ler contadores: %w", err)
	}

	stats := domain.Stats{
		TotalVotes: valores[CounterKeyTotalVotes],
		Voters:     valores[CounterKeyVoters],
		Tallies:    make([]domain.Tally, 0, len(pares)),
	}
	for _, p := range pares {
		p.Total = valores[CounterKeyTally(p.CategoryID, p.ParticipantID)]
		stats.Tallies = append(stats.Tallies, p)
	}
	return stats, nil
}

func (s *Service) statsFromLedger(ctx context.Context) (domain.Stats, error) {
	totais, err := s.votes.TotalsByParticipant(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	eleitores, err := s.votes.CountVoters(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{Voters: eleitores, Tallies: totais}
	for _, t := range totais {
		stats.TotalVotes += t.Total
	}
	if stats.Tallies == nil {
		stats.Tallies = []domain.Tally{}
	}
	return stats, nil
}

// RebuildCounters sobrescreve os contadores Redis com os totais do livro de votos.
func (s *Service) RebuildCounters(ctx context.Context) error {
	if s.counter == nil {
		return nil
	}
	totais, err := s.votes.TotalsByParticipant(ctx)
	if err != nil {
		return err
	}
	eleitores, err := s.votes.CountVoters(ctx)
	if err != nil {
		return err
	}
	if err := s.counter.Reset(ctx, countersFromTallies(totais, eleitores)); err != nil {
		return err
	}
	logger.Info("contadores reconstruidos", "pares", len(totais), "eleitores", eleitores)
	return nil
}

func validarCedula(entries []domain.BallotEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: nenhum voto informado", ErrBallotInvalido)
	}
	vistas := make(map[domain.CategoryID]struct{}, len(entries))
	for _, e := range entries {
		if e.CategoryID == "" || e.ParticipantID == "" {
			return fmt.Errorf("%w: categoria e participante obrigatorios", ErrBallotInvalido)
		}
		if _, ok := vistas[e.CategoryID]; ok {
			return fmt.Errorf("%w: categoria %s repetida", ErrBallotInvalido, e.CategoryID)
		}
		vistas[e.CategoryID] = struct{}{}
	}
	return nil
}

func validarPertencimento(categorias []domain.Category, entries []domain.BallotEntry) error {
	membros := make(map[domain.CategoryID][]domain.ParticipantID, len(categorias))
	for _, c := range categorias {
		ordenados := append([]domain.ParticipantID(nil), c.ParticipantIDs...)
		sort.Slice(ordenados, func(i, j int) bool { return ordenados[i] < ordenados[j] })
		membros[c.ID] = ordenados
	}

	for _, e := range entries {
		ordenados, ok := membros[e.CategoryID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrCategoriaDesconhecida, e.CategoryID)
		}
		i := sort.Search(len(ordenados), func(i int) bool { return ordenados[i] >= e.ParticipantID })
		if i == len(ordenados) || ordenados[i] != e.ParticipantID {
			return fmt.Errorf("%w: %s em %s", ErrParticipanteForaDaCategoria, e.ParticipantID, e.CategoryID)
		}
	}
	return nil
}

func ballotStatus(err error) string {
	switch {
	case err == nil:
		return "aceita"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "ja_votou"
	case errors.Is(err, ErrBallotInvalido),
		errors.Is(err, ErrCategoriaDesconhecida),
		errors.Is(err, ErrParticipanteForaDaCategoria):
		return "invalida"
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		return "bloqueada"
	case errors.Is(err, domain.ErrNaoAutenticado):
		return "nao_autenticado"
	default:
		return "erro"
	}
}
