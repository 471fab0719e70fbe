package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// SettingsRepository lê e grava a linha única de configuração da premiação.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingsModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	VoteGoal     int64     `gorm:"column:vote_goal"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em"`
}

func (settingsModel) TableName() string {
	return "award_settings"
}

func (m settingsModel) toDomain() domain.AwardSettings {
	return domain.AwardSettings{
		ID:           m.ID,
		VoteGoal:     m.VoteGoal,
		AtualizadoEm: m.AtualizadoEm,
	}
}

// Get devolve a configuração; se a linha ainda não existir, a meta é zero.
func (r *SettingsRepository) Get(ctx context.Context) (domain.AwardSettings, error) {
	var model settingsModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", domain.AwardsSettingsID).Error; err != nil {
		if notFound(err) {
			return domain.AwardSettings{ID: domain.AwardsSettingsID}, nil
		}
		return domain.AwardSettings{}, fmt.Errorf("gorm settings: buscar: %w", err)
	}
	return model.toDomain(), nil
}

func (r *SettingsRepository) SetVoteGoal(ctx context.Context, goal int64) (domain.AwardSettings, error) {
	model := settingsModel{
		ID:           domain.AwardsSettingsID,
		VoteGoal:     goal,
		AtualizadoEm: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_goal", "atualizado_em"}),
		}).
		Create(&model).Error; err != nil {
		return domain.AwardSettings{}, fmt.Errorf("gorm settings: gravar meta: %w", err)
	}
	return model.toDomain(), nil
}

var _ domain.SettingsRepository = (*SettingsRepository)(nil)
