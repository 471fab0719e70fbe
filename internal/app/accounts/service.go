// Pacote accounts resolve sessões em AuthContext, registra usuários vindos do provedor
// de identidade, apaga usuários e expõe o log de atividades paginado.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
)

// PageSize é o tamanho da página do log; o repositório é consultado com PageSize+1.
const PageSize = 10

var (
	ErrUsuarioNaoEncontrado = errors.New("usuario nao encontrado")
	ErrEmailInvalido        = errors.New("email invalido")
	ErrEmailEmUso           = errors.New("email ja cadastrado")
	ErrCursorInvalido       = errors.New("cursor invalido")
)

// BallotNotifier recebe a remoção de votos causada pela exclusão de um usuário,
// para que os contadores ao vivo acompanhem o livro.
type BallotNotifier interface {
	Notify(ctx context.Context, event domain.BallotEvent)
}

type Service struct {
	users    domain.UserRepository
	votes    domain.VoteRepository
	logs     domain.ActivityLogRepository
	notifier BallotNotifier
	clock    domain.Clock
	ids      domain.IDGenerator
}

func NewService(
	users domain.UserRepository,
	votes domain.VoteRepository,
	logs domain.ActivityLogRepository,
	notifier BallotNotifier,
	clock domain.Clock,
	idsGen domain.IDGenerator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	return &Service{
		users:    users,
		votes:    votes,
		logs:     logs,
		notifier: notifier,
		clock:    clock,
		ids:      idsGen,
	}
}

// Authenticate troca o token de sessão pela identidade; token ausente, desconhecido
// ou expirado vira ErrNaoAutenticado.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.AuthContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Anonymous, domain.ErrNaoAutenticado
	}
	u, err := s.users.FindBySessionToken(ctx, token, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Anonymous, domain.ErrNaoAutenticado
		}
		return domain.Anonymous, err
	}
	return domain.AuthContext{UserID: u.ID, Role: u.Role}, nil
}

// Register grava o usuário criado pelo provedor de identidade junto com o log REGISTER.
func (s *Service) Register(ctx context.Context, u domain.User) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: %q", ErrEmailInvalido, u.Email)
	}

	u.ID = domain.UserID(s.ids.New())
	u.Email = email
	u.Name = strings.TrimSpace(u.Name)
	if u.Role != domain.RoleAdmin {
		u.Role = domain.RoleUser
	}
	u.CriadoEm = s.clock.Now()

	invoker := u.ID
	registro := domain.ActivityLog{
		ID:        domain.LogID(s.ids.New()),
		Type:      domain.LogRegister,
		InvokerID: &invoker,
		CriadoEm:  u.CriadoEm,
	}
	if err := s.users.Create(ctx, u, registro); err != nil {
		if errors.Is(err, domain.ErrDuplicado) {
			return domain.User{}, ErrEmailEmUso
		}
		return domain.User{}, err
	}
	logger.Info("usuario registrado", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// CreateSession emite um token opaco para o usuário, válido por ttl.
func (s *Service) CreateSession(ctx context.Context, userID domain.UserID, ttl time.Duration) (domain.Session, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, ErrUsuarioNaoEncontrado
		}
		return domain.Session{}, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return domain.Session{}, fmt.Errorf("gerar token: %w", err)
	}
	sess := domain.Session{
		Token:     base64.RawURLEncoding.EncodeToString(buf),
		UserID:    userID,
		ExpiresAt: s.clock.Now().Add(ttl),
	}
	if err := s.users.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// DeleteUser remove o usuário com votos, cédula, sessões e logs dele, e registra
// USER_DELETE com o nome de usuário do email como assunto.
func (s *Service) DeleteUser(ctx context.Context, auth domain.AuthContext, userID domain.UserID) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}

	alvo, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUsuarioNaoEncontrado
		}
		return err
	}
	votos, err := s.votes.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	subject := emailHandle(alvo.Email)
	invoker := auth.UserID
	registro := domain.ActivityLog{
		ID:        domain.LogID(s.ids.New()),
		Type:      domain.LogUserDelete,
		InvokerID: &invoker,
		Subject:   &subject,
		CriadoEm:  s.clock.Now(),
	}
	if err := s.users.Delete(ctx, userID, registro); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUsuarioNaoEncontrado
		}
		return err
	}

	if s.notifier != nil && len(votos) > 0 {
		entries := make([]domain.BallotEntry, len(votos))
		for i, v := range votos {
			entries[i] = domain.BallotEntry{CategoryID: v.CategoryID, ParticipantID: v.ParticipantID}
		}
		s.notifier.Notify(ctx, domain.BallotEvent{Type: domain.BallotRemoved, UserID: userID, Votes: entries})
	}

	logger.Info("usuario removido", "user_id", userID, "admin_id", auth.UserID)
	return nil
}

// ActivityLogs devolve uma página do log, do mais novo para o mais antigo. O cursor é
// inclusivo: NextCursor é o id da primeira entrada da próxima página.
func (s *Service) ActivityLogs(ctx context.Context, auth domain.AuthContext, cursor string) (domain.LogPage, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.LogPage{}, err
	}

	var cur *domain.LogID
	if cursor != "" {
		if !ids.Valid(cursor) {
			return domain.LogPage{}, ErrCursorInvalido
		}
		c := domain.LogID(cursor)
		cur = &c
	}

	logs, err := s.logs.Page(ctx, cur, PageSize+1)
	if err != nil {
		return domain.LogPage{}, err
	}

	page := domain.LogPage{Logs: logs}
	if len(logs) > PageSize {
		next := logs[PageSize].ID
		page.NextCursor = &next
		page.Logs = logs[:PageSize]
	}
	if page.Logs == nil {
		page.Logs = []domain.ActivityLog{}
	}
	return page, nil
}

func emailHandle(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
