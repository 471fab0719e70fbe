package postgres

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
	"github.com/marcelojr/awards-voting/internal/platform/migrations"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)

	// Aplicar migrations no banco de teste
	require.NoError(t, migrations.Run(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

type fixture struct {
	db           *gorm.DB
	gen          *ids.Generator
	categories   *CategoryRepository
	participants *ParticipantRepository
	votes        *VoteRepository
	logs         *ActivityLogRepository
	users        *UserRepository
}

func newFixture(t *testing.T) fixture {
	db := setupDB(t)
	return fixture{
		db:           db,
		gen:          ids.NewGenerator(),
		categories:   NewCategoryRepository(db),
		participants: NewParticipantRepository(db),
		votes:        NewVoteRepository(db),
		logs:         NewActivityLogRepository(db),
		users:        NewUserRepository(db),
	}
}

func (f fixture) participant(t *testing.T, name string) domain.Participant {
	p := domain.Participant{
		ID:        domain.ParticipantID(f.gen.New()),
		Name:      name,
		Thumbnail: "https://img.example.com/" + name + ".png",
		Direction: "Rua das Flores, 123",
		CriadoEm:  time.Now().UTC(),
	}
	require.NoError(t, f.participants.Create(context.Background(), p))
	return p
}

func (f fixture) category(t *testing.T, name string, members ...domain.ParticipantID) domain.Category {
	c := domain.Category{
		ID:             domain.CategoryID(f.gen.New()),
		Name:           name,
		ParticipantIDs: members,
		CriadoEm:       time.Now().UTC(),
	}
	require.NoError(t, f.categories.Create(context.Background(), c))
	return c
}

func (f fixture) user(t *testing.T, email string, role domain.Role) domain.User {
	u := domain.User{
		ID:       domain.UserID(f.gen.New()),
		Email:    email,
		Name:     email,
		Role:     role,
		CriadoEm: time.Now().UTC(),
	}
	invoker := u.ID
	require.NoError(t, f.users.Create(context.Background(), u, domain.ActivityLog{
		ID:        domain.LogID(f.gen.New()),
		Type:      domain.LogRegister,
		InvokerID: &invoker,
		CriadoEm:  u.CriadoEm,
	}))
	return u
}

func (f fixture) voteLog(userID domain.UserID) domain.ActivityLog {
	invoker := userID
	return domain.ActivityLog{
		ID:        domain.LogID(f.gen.New()),
		Type:      domain.LogVote,
		InvokerID: &invoker,
		CriadoEm:  time.Now().UTC(),
	}
}

func (f fixture) ballot(pairs ...[2]string) []domain.Vote {
	votes := make([]domain.Vote, len(pairs))
	for i, p := range pairs {
		votes[i] = domain.Vote{
			ID:            domain.VoteID(f.gen.New()),
			CategoryID:    domain.CategoryID(p[0]),
			ParticipantID: domain.ParticipantID(p[1]),
			CriadoEm:      time.Now().UTC(),
		}
	}
	return votes
}

// requireSymmetric confere que P ∈ C.participantes sse C ∈ P.categorias para todo par.
func requireSymmetric(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()

	categorias, err := f.categories.List(ctx)
	require.NoError(t, err)
	participantes, err := f.participants.List(ctx)
	require.NoError(t, err)

	porCategoria := make(map[string]bool)
	for _, c := range categorias {
		for _, pid := range c.ParticipantIDs {
			porCategoria[string(c.ID)+"|"+string(pid)] = true
		}
	}
	porParticipante := make(map[string]bool)
	for _, p := range participantes {
		for _, cid := range p.CategoryIDs {
			porParticipante[string(cid)+"|"+string(p.ID)] = true
		}
	}
	require.Equal(t, porCategoria, porParticipante)
}

func sortedIDs[T ~string](in []T) []T {
	out := append([]T(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
