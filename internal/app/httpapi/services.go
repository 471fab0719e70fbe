package httpapi

import (
	"context"

	"github.com/marcelojr/awards-voting/internal/app/catalog"
	"github.com/marcelojr/awards-voting/internal/domain"
)

// Os handlers dependem destas interfaces; *voting.Service, *catalog.Service e
// *accounts.Service as satisfazem, e os testes usam mocks.

type VotingService interface {
	SubmitBallot(ctx context.Context, auth domain.AuthContext, entries []domain.BallotEntry) error
	MyVotes(ctx context.Context, auth domain.AuthContext) ([]domain.Vote, error)
	HasVoted(ctx context.Context, auth domain.AuthContext) (bool, error)
	VotesForUser(ctx context.Context, auth domain.AuthContext, userID domain.UserID) ([]domain.Vote, error)
	HasVotes(ctx context.Context, auth domain.AuthContext, userID domain.UserID) (bool, error)
	RemoveVotes(ctx context.Context, auth domain.AuthContext, userID domain.UserID) (int64, error)
	Predictions(ctx context.Context, auth domain.AuthContext) ([]domain.Prediction, error)
	LiveStats(ctx context.Context, auth domain.AuthContext) (domain.Stats, error)
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListCategoriesWithParticipants(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, auth domain.AuthContext, in catalog.CategoryInput) (domain.Category, error)
	EditCategory(ctx context.Context, auth domain.AuthContext, id domain.CategoryID, in catalog.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, auth domain.AuthContext, id domain.CategoryID) error
	ListParticipants(ctx context.Context, auth domain.AuthContext) ([]domain.Participant, error)
	CreateParticipant(ctx context.Context, auth domain.AuthContext, in catalog.ParticipantInput) (domain.Participant, error)
	EditParticipant(ctx context.Context, auth domain.AuthContext, id domain.ParticipantID, in catalog.ParticipantInput) (domain.Participant, error)
	DeleteParticipant(ctx context.Context, auth domain.AuthContext, id domain.ParticipantID) error
	Settings(ctx context.Context, auth domain.AuthContext) (domain.AwardSettings, error)
	SetVoteGoal(ctx context.Context, auth domain.AuthContext, goal int64) (domain.AwardSettings, error)
}

type AccountsService interface {
	Authenticate(ctx context.Context, token string) (domain.AuthContext, error)
	DeleteUser(ctx context.Context, auth domain.AuthContext, userID domain.UserID) error
	ActivityLogs(ctx context.Context, auth domain.AuthContext, cursor string) (domain.LogPage, error)
}
