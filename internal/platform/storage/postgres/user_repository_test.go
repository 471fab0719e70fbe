package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/awards-voting/internal/domain"
)

func TestUserRepository_FindBySessionToken_QuandoValida_DeveRetornarUsuario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := f.user(t, "ana@example.com", domain.RoleAdmin)
	require.NoError(t, f.users.CreateSession(ctx, domain.Session{Token: "tok-valido", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, f.users.CreateSession(ctx, domain.Session{Token: "tok-expirado", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}))

	encontrado, err := f.users.FindBySessionToken(ctx, "tok-valido", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, encontrado.ID)
	assert.Equal(t, domain.RoleAdmin, encontrado.Role)

	_, err = f.users.FindBySessionToken(ctx, "tok-expirado", now)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.users.FindBySessionToken(ctx, "tok-inexistente", now)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_Create_QuandoEmailRepetido_DeveRetornarDuplicado(t *testing.T) {
	f := newFixture(t)
	f.user(t, "ana@example.com", domain.RoleUser)

	err := f.users.Create(context.Background(), domain.User{
		ID:    domain.UserID(f.gen.New()),
		Email: "ana@example.com",
		Role:  domain.RoleUser,
	}, f.voteLog("x"))

	assert.ErrorIs(t, err, domain.ErrDuplicado)
}

func TestUserRepository_Delete_DeveRemoverEmCascataERegistrarQuemApagou(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin@example.com", domain.RoleAdmin)
	u := f.user(t, "bruno@example.com", domain.RoleUser)
	x := f.participant(t, "X")
	a := f.category(t, "Categoria A", x.ID)
	require.NoError(t, f.votes.SubmitBallot(ctx, u.ID, f.ballot([2]string{string(a.ID), string(x.ID)}), f.voteLog(u.ID)))
	require.NoError(t, f.users.CreateSession(ctx, domain.Session{Token: "tok", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	subject := "bruno"
	invoker := admin.ID
	err := f.users.Delete(ctx, u.ID, domain.ActivityLog{
		ID:        domain.LogID(f.gen.New()),
		Type:      domain.LogUserDelete,
		InvokerID: &invoker,
		Subject:   &subject,
		CriadoEm:  time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = f.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	votou, err := f.votes.HasVoted(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, votou)
	_, err = f.users.FindBySessionToken(ctx, "tok", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	logs, err := f.logs.Page(ctx, nil, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2, "REGISTER do admin + USER_DELETE")
	assert.Equal(t, domain.LogUserDelete, logs[0].Type)
	require.NotNil(t, logs[0].Subject)
	assert.Equal(t, "bruno", *logs[0].Subject)
	for _, l := range logs {
		require.NotNil(t, l.InvokerID)
		assert.Equal(t, admin.ID, *l.InvokerID)
	}
}

func TestUserRepository_Delete_QuandoNaoExiste_DeveRetornarNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.users.Delete(context.Background(), domain.UserID(f.gen.New()), f.voteLog("x"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
