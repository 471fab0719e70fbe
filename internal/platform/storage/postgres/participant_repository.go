package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// ParticipantRepository persiste participantes e mantém o lado "participante" da junção.
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

type participantModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	Thumbnail    string    `gorm:"column:thumbnail"`
	Direction    string    `gorm:"column:direction"`
	Website      *string   `gorm:"column:website"`
	MapsAnchor   *string   `gorm:"column:maps_anchor"`
	CriadoEm     time.Time `gorm:"column:criado_em"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em"`
}

func (participantModel) TableName() string {
	return "participants"
}

func (m participantModel) toDomain(categoryIDs []domain.CategoryID) domain.Participant {
	if categoryIDs == nil {
		categoryIDs = []domain.CategoryID{}
	}
	return domain.Participant{
		ID:           domain.ParticipantID(m.ID),
		Name:         m.Name,
		Thumbnail:    m.Thumbnail,
		Direction:    m.Direction,
		Website:      m.Website,
		MapsAnchor:   m.MapsAnchor,
		CategoryIDs:  categoryIDs,
		CriadoEm:     m.CriadoEm,
		AtualizadoEm: m.AtualizadoEm,
	}
}

func fromDomainParticipant(p domain.Participant) participantModel {
	return participantModel{
		ID:           string(p.ID),
		Name:         p.Name,
		Thumbnail:    p.Thumbnail,
		Direction:    p.Direction,
		Website:      p.Website,
		MapsAnchor:   p.MapsAnchor,
		CriadoEm:     p.CriadoEm,
		AtualizadoEm: p.AtualizadoEm,
	}
}

func (r *ParticipantRepository) Create(ctx context.Context, p domain.Participant) error {
	model := fromDomainParticipant(p)
	categoryIDs := toStrings(domain.UniqueIDs(p.CategoryIDs))

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExist(tx, "categories", categoryIDs); err != nil {
			return err
		}
		if err := tx.Create(&model).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("gorm participante: inserir: %w", domain.ErrDuplicado)
			}
			return fmt.Errorf("gorm participante: inserir: %w", err)
		}

		rows := make([]categoryParticipantModel, len(categoryIDs))
		for i, cid := range categoryIDs {
			rows[i] = categoryParticipantModel{CategoryID: cid, ParticipantID: model.ID}
		}
		return connect(tx, rows)
	})
}

func (r *ParticipantRepository) Update(ctx context.Context, p domain.Participant) error {
	model := fromDomainParticipant(p)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual participantModel
		if err := tx.First(&atual, "id = ?", model.ID).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm participante: buscar id: %w", err)
		}

		if err := tx.Model(&participantModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"name":          model.Name,
				"thumbnail":     model.Thumbnail,
				"direction":     model.Direction,
				"website":       model.Website,
				"maps_anchor":   model.MapsAnchor,
				"atualizado_em": model.AtualizadoEm,
			}).Error; err != nil {
			return fmt.Errorf("gorm participante: atualizar: %w", err)
		}

		membros, err := categoryIDsByParticipant(tx, []string{model.ID})
		if err != nil {
			return err
		}
		added, removed := domain.DiffMembership(membros[model.ID], p.CategoryIDs)

		if err := ensureExist(tx, "categories", toStrings(added)); err != nil {
			return err
		}
		rows := make([]categoryParticipantModel, len(added))
		for i, cid := range added {
			rows[i] = categoryParticipantModel{CategoryID: string(cid), ParticipantID: model.ID}
		}
		if err := connect(tx, rows); err != nil {
			return err
		}
		return disconnect(tx, "participant_id", model.ID, "category_id", toStrings(removed))
	})
}

// Delete tira o participante de todas as categorias e apaga os votos dados a ele,
// devolvendo-os para o desconto dos contadores.
func (r *ParticipantRepository) Delete(ctx context.Context, id domain.ParticipantID) ([]domain.Vote, error) {
	var removidos []voteModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual participantModel
		if err := tx.First(&atual, "id = ?", id).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm participante: buscar id: %w", err)
		}
		if err := tx.Where("participant_id = ?", id).Delete(&categoryParticipantModel{}).Error; err != nil {
			return fmt.Errorf("gorm participante: desconectar categorias: %w", err)
		}
		if err := tx.Where("participant_id = ?", id).Find(&removidos).Error; err != nil {
			return fmt.Errorf("gorm participante: listar votos: %w", err)
		}
		if err := tx.Where("participant_id = ?", id).Delete(&voteModel{}).Error; err != nil {
			return fmt.Errorf("gorm participante: remover votos: %w", err)
		}
		if err := tx.Delete(&participantModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("gorm participante: remover: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return votesToDomain(removidos), nil
}

func (r *ParticipantRepository) FindByID(ctx context.Context, id domain.ParticipantID) (domain.Participant, error) {
	db := r.db.WithContext(ctx)

	var model participantModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, fmt.Errorf("gorm participante: buscar id: %w", err)
	}

	membros, err := categoryIDsByParticipant(db, []string{model.ID})
	if err != nil {
		return domain.Participant{}, err
	}
	return model.toDomain(membros[model.ID]), nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	db := r.db.WithContext(ctx)

	var models []participantModel
	if err := db.
		Order("name ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm participante: listar: %w", err)
	}

	membros, err := categoryIDsByParticipant(db, nil)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Participant, len(models))
	for i, model := range models {
		result[i] = model.toDomain(membros[model.ID])
	}
	return result, nil
}

var _ domain.ParticipantRepository = (*ParticipantRepository)(nil)
