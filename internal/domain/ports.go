package domain

import (
	"context"
	"time"
)

// Os repositórios de categoria e participante devolvem ErrNotFound quando a própria
// entidade não existe e ErrReferenciaInvalida quando algum id relacionado não existe.
type CategoryRepository interface {
	Create(ctx context.Context, c Category) error
	// Update grava os campos e aplica o diff de participantes numa única transação.
	Update(ctx context.Context, c Category) error
	// Delete devolve os votos apagados junto com a categoria.
	Delete(ctx context.Context, id CategoryID) ([]Vote, error)
	FindByID(ctx context.Context, id CategoryID) (Category, error)
	List(ctx context.Context) ([]Category, error)
	ListWithParticipants(ctx context.Context) ([]Category, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, p Participant) error
	Update(ctx context.Context, p Participant) error
	Delete(ctx context.Context, id ParticipantID) ([]Vote, error)
	FindByID(ctx context.Context, id ParticipantID) (Participant, error)
	List(ctx context.Context) ([]Participant, error)
}

type VoteRepository interface {
	// SubmitBallot grava a cédula inteira e o log de atividade de forma atômica.
	// Devolve ErrAlreadyVoted se o usuário já tiver qualquer voto registrado.
	SubmitBallot(ctx context.Context, userID UserID, votes []Vote, log ActivityLog) error
	ListByUser(ctx context.Context, userID UserID) ([]Vote, error)
	HasVoted(ctx context.Context, userID UserID) (bool, error)
	RemoveByUser(ctx context.Context, userID UserID) ([]Vote, error)
	TotalsByParticipant(ctx context.Context) ([]Tally, error)
	CountVoters(ctx context.Context) (int64, error)
}

type ActivityLogRepository interface {
	Append(ctx context.Context, log ActivityLog) error
	// Page devolve até limit entradas com id <= cursor, em ordem decrescente de id.
	Page(ctx context.Context, cursor *LogID, limit int) ([]ActivityLog, error)
}

type UserRepository interface {
	// Create registra o usuário e o log REGISTER na mesma transação.
	Create(ctx context.Context, u User, log ActivityLog) error
	FindByID(ctx context.Context, id UserID) (User, error)
	FindBySessionToken(ctx context.Context, token string, now time.Time) (User, error)
	CreateSession(ctx context.Context, s Session) error
	// Delete remove usuário, votos, cédula, sessões e logs dele, e anexa o log USER_DELETE.
	Delete(ctx context.Context, id UserID, log ActivityLog) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (AwardSettings, error)
	SetVoteGoal(ctx context.Context, goal int64) (AwardSettings, error)
}

type Counter interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	GetAll(ctx context.Context, keys []string) (map[string]int64, error)
	Reset(ctx context.Context, values map[string]int64) error
}

type BallotQueue interface {
	Publish(ctx context.Context, event BallotEvent) error
	Consume(ctx context.Context, handler func(context.Context, BallotEvent) error) error
}

// Antifraude é consultado antes de gravar a cédula e avisado das cédulas recusadas.
type Antifraude interface {
	Validar(ctx context.Context, userID UserID, origem string) error
	RegistrarFalha(ctx context.Context, userID UserID, origem string) error
}

// ImageUploader é o colaborador externo que hospeda imagens e devolve a URL pública.
type ImageUploader interface {
	Upload(ctx context.Context, image []byte, contentType string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	New() string
}
