package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/awards-voting/internal/domain"
)

func TestParticipantRepository_Create_QuandoComCategorias_DeveConectarAsCategorias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1 := f.category(t, "Melhor pizza")
	c2 := f.category(t, "Melhor atendimento")

	website := "https://nona.example.com"
	p := domain.Participant{
		ID:          domain.ParticipantID(f.gen.New()),
		Name:        "Cantina da Nona",
		Thumbnail:   "https://img.example.com/nona.png",
		Direction:   "Rua Augusta, 500",
		Website:     &website,
		CategoryIDs: []domain.CategoryID{c1.ID, c2.ID, c1.ID},
		CriadoEm:    time.Now().UTC(),
	}
	require.NoError(t, f.participants.Create(ctx, p))

	salvo, err := f.participants.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sortedIDs([]domain.CategoryID{c1.ID, c2.ID}), salvo.CategoryIDs)
	require.NotNil(t, salvo.Website)
	assert.Equal(t, website, *salvo.Website)
	assert.Nil(t, salvo.MapsAnchor)

	cat, err := f.categories.FindByID(ctx, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{p.ID}, cat.ParticipantIDs)
	requireSymmetric(t, f)
}

func TestParticipantRepository_Update_QuandoCategoriasMudam_DeveAtualizarOsDoisLados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1 := f.category(t, "Categoria um")
	c2 := f.category(t, "Categoria dois")
	c3 := f.category(t, "Categoria três")
	p := f.participant(t, "Alfa")
	p.CategoryIDs = []domain.CategoryID{c1.ID, c2.ID}
	require.NoError(t, f.participants.Update(ctx, p))

	p.CategoryIDs = []domain.CategoryID{c2.ID, c3.ID}
	p.Name = "Alfa Renomeado"
	require.NoError(t, f.participants.Update(ctx, p))

	salvo, err := f.participants.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alfa Renomeado", salvo.Name)
	assert.Equal(t, sortedIDs([]domain.CategoryID{c2.ID, c3.ID}), salvo.CategoryIDs)

	um, err := f.categories.FindByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Empty(t, um.ParticipantIDs)
	requireSymmetric(t, f)
}

func TestParticipantRepository_Delete_QuandoEmDuasCategorias_DeveSumirDeAmbas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Arrange
	p := f.participant(t, "Alfa")
	outro := f.participant(t, "Beta")
	c1 := f.category(t, "Categoria um", p.ID, outro.ID)
	c2 := f.category(t, "Categoria dois", p.ID)

	// Act
	removidos, err := f.participants.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, removidos)

	// Assert
	um, err := f.categories.FindByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ParticipantID{outro.ID}, um.ParticipantIDs)

	dois, err := f.categories.FindByID(ctx, c2.ID)
	require.NoError(t, err)
	assert.Empty(t, dois.ParticipantIDs)

	_, err = f.participants.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	requireSymmetric(t, f)
}

func TestParticipantRepository_Delete_QuandoNaoExiste_DeveRetornarNotFound(t *testing.T) {
	f := newFixture(t)

	removidos, err := f.participants.Delete(context.Background(), domain.ParticipantID(f.gen.New()))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, removidos)
}

func TestParticipantRepository_Delete_QuandoTemVotos_DeveDevolverOsRemovidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.participant(t, "Alfa")
	outro := f.participant(t, "Beta")
	c1 := f.category(t, "Categoria um", p.ID, outro.ID)
	c2 := f.category(t, "Categoria dois", p.ID)
	ana := f.user(t, "ana@example.com", domain.RoleUser)
	bia := f.user(t, "bia@example.com", domain.RoleUser)
	require.NoError(t, f.votes.SubmitBallot(ctx, ana.ID, f.ballot(
		[2]string{string(c1.ID), string(p.ID)},
		[2]string{string(c2.ID), string(p.ID)},
	), f.voteLog(ana.ID)))
	require.NoError(t, f.votes.SubmitBallot(ctx, bia.ID, f.ballot(
		[2]string{string(c1.ID), string(outro.ID)},
	), f.voteLog(bia.ID)))

	removidos, err := f.participants.Delete(ctx, p.ID)
	require.NoError(t, err)

	require.Len(t, removidos, 2)
	for _, v := range removidos {
		assert.Equal(t, p.ID, v.ParticipantID)
		assert.Equal(t, ana.ID, v.UserID)
	}
	totais, err := f.votes.TotalsByParticipant(ctx)
	require.NoError(t, err)
	require.Len(t, totais, 1)
	assert.Equal(t, outro.ID, totais[0].ParticipantID)

	eleitores, err := f.votes.CountVoters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), eleitores, "cedulas continuam registradas")
}
