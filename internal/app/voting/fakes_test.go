package voting

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/marcelojr/awards-voting/internal/domain"
)

type inMemoryCategoryRepo struct {
	mu   sync.Mutex
	data map[domain.CategoryID]domain.Category
}

func newInMemoryCategoryRepo() *inMemoryCategoryRepo {
	return &inMemoryCategoryRepo{data: make(map[domain.CategoryID]domain.Category)}
}

func (r *inMemoryCategoryRepo) Create(_ context.Context, c domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = c
	return nil
}

func (r *inMemoryCategoryRepo) Update(ctx context.Context, c domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.data[c.ID] = c
	return nil
}

func (r *inMemoryCategoryRepo) Delete(_ context.Context, id domain.CategoryID) ([]domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.data, id)
	return nil, nil
}

func (r *inMemoryCategoryRepo) FindByID(_ context.Context, id domain.CategoryID) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return domain.Category{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *inMemoryCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Category, 0, len(r.data))
	for _, c := range r.data {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *inMemoryCategoryRepo) ListWithParticipants(ctx context.Context) ([]domain.Category, error) {
	return r.List(ctx)
}

type inMemoryParticipantRepo struct {
	mu   sync.Mutex
	data map[domain.ParticipantID]domain.Participant
}

func newInMemoryParticipantRepo() *inMemoryParticipantRepo {
	return &inMemoryParticipantRepo{data: make(map[domain.ParticipantID]domain.Participant)}
}

func (r *inMemoryParticipantRepo) Create(_ context.Context, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

func (r *inMemoryParticipantRepo) Update(ctx context.Context, p domain.Participant) error {
	return r.Create(ctx, p)
}

func (r *inMemoryParticipantRepo) Delete(_ context.Context, id domain.ParticipantID) ([]domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil, nil
}

func (r *inMemoryParticipantRepo) FindByID(_ context.Context, id domain.ParticipantID) (domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.Participant{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *inMemoryParticipantRepo) List(_ context.Context) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Participant, 0, len(r.data))
	for _, p := range r.data {
		result = append(result, p)
	}
	return result, nil
}

// inMemoryVoteRepo imita o contrato do livro: a cédula inteira entra ou nada entra.
type inMemoryVoteRepo struct {
	mu     sync.Mutex
	votes  []domain.Vote
	logs   []domain.ActivityLog
	failOn int
}

func newInMemoryVoteRepo() *inMemoryVoteRepo {
	return &inMemoryVoteRepo{}
}

func (r *inMemoryVoteRepo) SubmitBallot(_ context.Context, userID domain.UserID, votes []domain.Vote, log domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.UserID == userID {
			return domain.ErrAlreadyVoted
		}
	}
	if r.failOn > 0 && len(votes) >= r.failOn {
		return domain.ErrDuplicado
	}
	r.votes = append(r.votes, votes...)
	r.logs = append(r.logs, log)
	return nil
}

func (r *inMemoryVoteRepo) ListByUser(_ context.Context, userID domain.UserID) ([]domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []domain.Vote{}
	for _, v := range r.votes {
		if v.UserID == userID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (r *inMemoryVoteRepo) HasVoted(ctx context.Context, userID domain.UserID) (bool, error) {
	votos, _ := r.ListByUser(ctx, userID)
	return len(votos) > 0, nil
}

func (r *inMemoryVoteRepo) RemoveByUser(_ context.Context, userID domain.UserID) ([]domain.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removidos, restantes []domain.Vote
	for _, v := range r.votes {
		if v.UserID == userID {
			removidos = append(removidos, v)
			continue
		}
		restantes = append(restantes, v)
	}
	r.votes = restantes
	return removidos, nil
}

func (r *inMemoryVoteRepo) TotalsByParticipant(_ context.Context) ([]domain.Tally, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	porPar := make(map[[2]string]int64)
	for _, v := range r.votes {
		porPar[[2]string{string(v.CategoryID), string(v.ParticipantID)}]++
	}
	result := make([]domain.Tally, 0, len(porPar))
	for k, total := range porPar {
		result = append(result, domain.Tally{CategoryID: domain.CategoryID(k[0]), ParticipantID: domain.ParticipantID(k[1]), Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CategoryID != result[j].CategoryID {
			return result[i].CategoryID < result[j].CategoryID
		}
		return result[i].ParticipantID < result[j].ParticipantID
	})
	return result, nil
}

func (r *inMemoryVoteRepo) CountVoters(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eleitores := make(map[domain.UserID]struct{})
	for _, v := range r.votes {
		eleitores[v.UserID] = struct{}{}
	}
	return int64(len(eleitores)), nil
}

type inMemorySettings struct {
	goal int64
}

func (s *inMemorySettings) Get(context.Context) (domain.AwardSettings, error) {
	return domain.AwardSettings{ID: domain.AwardsSettingsID, VoteGoal: s.goal}, nil
}

func (s *inMemorySettings) SetVoteGoal(_ context.Context, goal int64) (domain.AwardSettings, error) {
	s.goal = goal
	return domain.AwardSettings{ID: domain.AwardsSettingsID, VoteGoal: goal}, nil
}

type inMemoryCounter struct {
	mu      sync.Mutex
	valores map[string]int64
}

func newInMemoryCounter() *inMemoryCounter {
	return &inMemoryCounter{valores: make(map[string]int64)}
}

func (c *inMemoryCounter) Increment(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valores[key] += delta
	return c.valores[key], nil
}

func (c *inMemoryCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valores[key], nil
}

func (c *inMemoryCounter) GetAll(_ context.Context, keys []string) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[string]int64, len(keys))
	for _, k := range keys {
		result[k] = c.valores[k]
	}
	return result, nil
}

func (c *inMemoryCounter) Reset(_ context.Context, values map[string]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valores = make(map[string]int64, len(values))
	for k, v := range values {
		c.valores[k] = v
	}
	return nil
}

type recordingQueue struct {
	mu     sync.Mutex
	events []domain.BallotEvent
}

func (q *recordingQueue) Publish(_ context.Context, e domain.BallotEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
	return nil
}

func (q *recordingQueue) Consume(ctx context.Context, handler func(context.Context, domain.BallotEvent) error) error {
	q.mu.Lock()
	events := q.events
	q.events = nil
	q.mu.Unlock()
	for _, e := range events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (q *recordingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

type antifraudeStub struct {
	err error
}

func (a antifraudeStub) Validar(context.Context, domain.UserID, string) error {
	return a.err
}

func (a antifraudeStub) RegistrarFalha(context.Context, domain.UserID, string) error {
	return nil
}

// antifraudeGravador guarda as origens que tiveram cédula recusada.
type antifraudeGravador struct {
	mu     sync.Mutex
	falhas []string
}

func (a *antifraudeGravador) Validar(context.Context, domain.UserID, string) error {
	return nil
}

func (a *antifraudeGravador) RegistrarFalha(_ context.Context, _ domain.UserID, origem string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.falhas = append(a.falhas, origem)
	return nil
}

type staticClock struct {
	now time.Time
}

func (c staticClock) Now() time.Time {
	return c.now
}
