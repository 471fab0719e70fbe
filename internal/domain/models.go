package domain

import (
	"time"
)

type (
	UserID        string
	CategoryID    string
	ParticipantID string
	VoteID        string
	LogID         string
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type LogType string

const (
	LogRegister   LogType = "REGISTER"
	LogVote       LogType = "VOTE"
	LogUserDelete LogType = "USER_DELETE"
)

// AwardsSettingsID identifica a única linha de configuração da premiação.
const AwardsSettingsID = "awards"

type User struct {
	ID       UserID    `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Email    string    `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Name     string    `gorm:"column:name;type:text" json:"name"`
	Role     Role      `gorm:"column:role;type:varchar(10);not null;default:USER" json:"role"`
	CriadoEm time.Time `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
}

// Session é mantida pelo provedor de identidade; aqui apenas lemos o token.
type Session struct {
	Token     string    `gorm:"column:token;type:text;primaryKey" json:"-"`
	UserID    UserID    `gorm:"column:user_id;type:char(26);not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
}

type Category struct {
	ID             CategoryID      `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Name           string          `gorm:"column:name;type:text;not null" json:"name"`
	Location       *string         `gorm:"column:location;type:text" json:"location"`
	ParticipantIDs []ParticipantID `gorm:"-" json:"participant_ids"`
	Participants   []Participant   `gorm:"-" json:"participants,omitempty"`
	CriadoEm       time.Time       `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm   time.Time       `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

type Participant struct {
	ID           ParticipantID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Name         string        `gorm:"column:name;type:text;not null" json:"name"`
	Thumbnail    string        `gorm:"column:thumbnail;type:text;not null" json:"thumbnail"`
	Direction    string        `gorm:"column:direction;type:text" json:"direction"`
	Website      *string       `gorm:"column:website;type:text" json:"website"`
	MapsAnchor   *string       `gorm:"column:maps_anchor;type:text" json:"maps_anchor"`
	CategoryIDs  []CategoryID  `gorm:"-" json:"category_ids"`
	CriadoEm     time.Time     `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	AtualizadoEm time.Time     `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// CategoryParticipant é a única fonte da relação entre categorias e participantes:
// os dois lados (Category.ParticipantIDs e Participant.CategoryIDs) são lidos daqui.
type CategoryParticipant struct {
	CategoryID    CategoryID    `gorm:"column:category_id;type:char(26);primaryKey"`
	ParticipantID ParticipantID `gorm:"column:participant_id;type:char(26);primaryKey;index"`
}

type Vote struct {
	ID            VoteID        `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	UserID        UserID        `gorm:"column:user_id;type:char(26);not null;uniqueIndex:idx_votes_user_category,priority:1" json:"user_id"`
	CategoryID    CategoryID    `gorm:"column:category_id;type:char(26);not null;uniqueIndex:idx_votes_user_category,priority:2;index:idx_votes_category" json:"category_id"`
	ParticipantID ParticipantID `gorm:"column:participant_id;type:char(26);not null;index:idx_votes_participant" json:"participant_id"`
	CriadoEm      time.Time     `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	Category      *Category     `gorm:"-" json:"category,omitempty"`
	Participant   *Participant  `gorm:"-" json:"participant,omitempty"`
}

// Ballot marca que um usuário já votou. A chave primária em user_id é o que
// impede duas submissões concorrentes do mesmo usuário de serem confirmadas.
type Ballot struct {
	UserID      UserID    `gorm:"column:user_id;type:char(26);primaryKey"`
	SubmetidoEm time.Time `gorm:"column:submetido_em;not null"`
}

type BallotEntry struct {
	CategoryID    CategoryID    `json:"category_id"`
	ParticipantID ParticipantID `json:"participant_id"`
}

type ActivityLog struct {
	ID        LogID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Type      LogType   `gorm:"column:type;type:varchar(20);not null" json:"type"`
	InvokerID *UserID   `gorm:"column:invoker_id;type:char(26);index" json:"invoker_id"`
	Subject   *string   `gorm:"column:subject;type:text" json:"subject"`
	CriadoEm  time.Time `gorm:"column:criado_em;autoCreateTime" json:"criado_em"`
	Invoker   *User     `gorm:"-" json:"invoker,omitempty"`
}

type LogPage struct {
	Logs       []ActivityLog `json:"logs"`
	NextCursor *LogID        `json:"next_cursor"`
}

type AwardSettings struct {
	ID           string    `gorm:"column:id;type:varchar(32);primaryKey" json:"-"`
	VoteGoal     int64     `gorm:"column:vote_goal;not null;default:0" json:"vote_goal"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em;autoUpdateTime" json:"atualizado_em"`
}

// Prediction traz o participante à frente em uma categoria. Leader nulo indica categoria sem votos.
type Prediction struct {
	Category  Category     `json:"category"`
	Leader    *Participant `json:"leader"`
	VoteCount int64        `json:"vote_count"`
}

type Tally struct {
	CategoryID    CategoryID    `json:"category_id"`
	ParticipantID ParticipantID `json:"participant_id"`
	Total         int64         `json:"total"`
}

type Stats struct {
	TotalVotes int64   `json:"total_votes"`
	Voters     int64   `json:"voters"`
	VoteGoal   int64   `json:"vote_goal"`
	Tallies    []Tally `json:"tallies"`
}

type BallotEventType string

const (
	BallotCast    BallotEventType = "cast"
	BallotRemoved BallotEventType = "removed"
	// BallotPruned tira votos soltos (categoria ou participante apagado); a cédula continua.
	BallotPruned  BallotEventType = "pruned"
)

// BallotEvent trafega pela fila Redis para que o worker mantenha os contadores ao vivo.
type BallotEvent struct {
	Type   BallotEventType `json:"type"`
	UserID UserID          `json:"user_id"`
	Votes  []BallotEntry   `json:"votes"`
}

func (User) TableName() string { return "users" }

func (Session) TableName() string { return "sessions" }

func (Category) TableName() string { return "categories" }

func (Participant) TableName() string { return "participants" }

func (CategoryParticipant) TableName() string { return "category_participants" }

func (Vote) TableName() string { return "votes" }

func (Ballot) TableName() string { return "ballots" }

func (ActivityLog) TableName() string { return "activity_logs" }

func (AwardSettings) TableName() string { return "award_settings" }
