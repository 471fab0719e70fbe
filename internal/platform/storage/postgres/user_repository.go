package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// UserRepository lê usuários e sessões criados pelo provedor de identidade e
// executa as remoções em cascata quando um administrador apaga alguém.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID       string    `gorm:"column:id;primaryKey"`
	Email    string    `gorm:"column:email"`
	Name     string    `gorm:"column:name"`
	Role     string    `gorm:"column:role"`
	CriadoEm time.Time `gorm:"column:criado_em"`
}

func (userModel) TableName() string {
	return "users"
}

type sessionModel struct {
	Token     string    `gorm:"column:token;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

func (sessionModel) TableName() string {
	return "sessions"
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:       domain.UserID(m.ID),
		Email:    m.Email,
		Name:     m.Name,
		Role:     domain.Role(m.Role),
		CriadoEm: m.CriadoEm,
	}
}

func fromDomainUser(u domain.User) userModel {
	return userModel{
		ID:       string(u.ID),
		Email:    u.Email,
		Name:     u.Name,
		Role:     string(u.Role),
		CriadoEm: u.CriadoEm,
	}
}

func usersByID(db *gorm.DB, ids []string) (map[string]userModel, error) {
	result := make(map[string]userModel, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var models []userModel
	if err := db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm usuarios: carregar: %w", err)
	}
	for _, m := range models {
		result[m.ID] = m
	}
	return result, nil
}

func (r *UserRepository) Create(ctx context.Context, u domain.User, log domain.ActivityLog) error {
	model := fromDomainUser(u)
	logRow := fromDomainLog(log)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("gorm usuarios: inserir: %w", domain.ErrDuplicado)
			}
			return fmt.Errorf("gorm usuarios: inserir: %w", err)
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return fmt.Errorf("gorm usuarios: registrar log: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("gorm usuarios: buscar id: %w", err)
	}
	return model.toDomain(), nil
}

func (r *UserRepository) FindBySessionToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	var model userModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token = ? AND sessions.expires_at > ?", token, now).
		First(&model).Error; err != nil {
		if notFound(err) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("gorm usuarios: buscar sessao: %w", err)
	}
	return model.toDomain(), nil
}

func (r *UserRepository) CreateSession(ctx context.Context, s domain.Session) error {
	model := sessionModel{Token: s.Token, UserID: string(s.UserID), ExpiresAt: s.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm usuarios: criar sessao: %w", err)
	}
	return nil
}

// Delete remove o usuário e tudo que é dele numa transação e registra quem apagou.
func (r *UserRepository) Delete(ctx context.Context, id domain.UserID, log domain.ActivityLog) error {
	logRow := fromDomainLog(log)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual userModel
		if err := tx.First(&atual, "id = ?", id).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm usuarios: buscar id: %w", err)
		}

		steps := []struct {
			acao  string
			model any
			where string
		}{
			{"remover votos", &voteModel{}, "user_id = ?"},
			{"remover cedula", &ballotModel{}, "user_id = ?"},
			{"remover sessoes", &sessionModel{}, "user_id = ?"},
			{"remover logs", &activityLogModel{}, "invoker_id = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, id).Delete(step.model).Error; err != nil {
				return fmt.Errorf("gorm usuarios: %s: %w", step.acao, err)
			}
		}

		if err := tx.Delete(&userModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("gorm usuarios: remover: %w", err)
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return fmt.Errorf("gorm usuarios: registrar log: %w", err)
		}
		return nil
	})
}

var _ domain.UserRepository = (*UserRepository)(nil)
