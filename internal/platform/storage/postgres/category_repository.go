package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// CategoryRepository persiste categorias e mantém o lado "categoria" da junção com participantes.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

type categoryModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	Location     *string   `gorm:"column:location"`
	CriadoEm     time.Time `gorm:"column:criado_em"`
	AtualizadoEm time.Time `gorm:"column:atualizado_em"`
}

func (categoryModel) TableName() string {
	return "categories"
}

func (m categoryModel) toDomain(participantIDs []domain.ParticipantID) domain.Category {
	if participantIDs == nil {
		participantIDs = []domain.ParticipantID{}
	}
	return domain.Category{
		ID:             domain.CategoryID(m.ID),
		Name:           m.Name,
		Location:       m.Location,
		ParticipantIDs: participantIDs,
		CriadoEm:       m.CriadoEm,
		AtualizadoEm:   m.AtualizadoEm,
	}
}

func fromDomainCategory(c domain.Category) categoryModel {
	return categoryModel{
		ID:           string(c.ID),
		Name:         c.Name,
		Location:     c.Location,
		CriadoEm:     c.CriadoEm,
		AtualizadoEm: c.AtualizadoEm,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c domain.Category) error {
	model := fromDomainCategory(c)
	participantIDs := toStrings(domain.UniqueIDs(c.ParticipantIDs))

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExist(tx, "participants", participantIDs); err != nil {
			return err
		}
		if err := tx.Create(&model).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("gorm categoria: inserir: %w", domain.ErrDuplicado)
			}
			return fmt.Errorf("gorm categoria: inserir: %w", err)
		}

		rows := make([]categoryParticipantModel, len(participantIDs))
		for i, pid := range participantIDs {
			rows[i] = categoryParticipantModel{CategoryID: model.ID, ParticipantID: pid}
		}
		return connect(tx, rows)
	})
}

// Update aplica apenas a diferença entre os participantes atuais e os desejados,
// tudo na mesma transação dos campos da categoria.
func (r *CategoryRepository) Update(ctx context.Context, c domain.Category) error {
	model := fromDomainCategory(c)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual categoryModel
		if err := tx.First(&atual, "id = ?", model.ID).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm categoria: buscar id: %w", err)
		}

		if err := tx.Model(&categoryModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]any{
				"name":          model.Name,
				"location":      model.Location,
				"atualizado_em": model.AtualizadoEm,
			}).Error; err != nil {
			return fmt.Errorf("gorm categoria: atualizar: %w", err)
		}

		membros, err := participantIDsByCategory(tx, []string{model.ID})
		if err != nil {
			return err
		}
		added, removed := domain.DiffMembership(membros[model.ID], c.ParticipantIDs)

		if err := ensureExist(tx, "participants", toStrings(added)); err != nil {
			return err
		}
		rows := make([]categoryParticipantModel, len(added))
		for i, pid := range added {
			rows[i] = categoryParticipantModel{CategoryID: model.ID, ParticipantID: string(pid)}
		}
		if err := connect(tx, rows); err != nil {
			return err
		}
		return disconnect(tx, "category_id", model.ID, "participant_id", toStrings(removed))
	})
}

// Delete desliga a categoria de todos os participantes e remove os votos dados nela.
// Devolve os votos removidos para que os contadores ao vivo possam ser descontados.
// As cédulas ficam: quem votou continua sem poder votar de novo.
func (r *CategoryRepository) Delete(ctx context.Context, id domain.CategoryID) ([]domain.Vote, error) {
	var removidos []voteModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var atual categoryModel
		if err := tx.First(&atual, "id = ?", id).Error; err != nil {
			if notFound(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm categoria: buscar id: %w", err)
		}
		if err := tx.Where("category_id = ?", id).Delete(&categoryParticipantModel{}).Error; err != nil {
			return fmt.Errorf("gorm categoria: desconectar participantes: %w", err)
		}
		if err := tx.Where("category_id = ?", id).Find(&removidos).Error; err != nil {
			return fmt.Errorf("gorm categoria: listar votos: %w", err)
		}
		if err := tx.Where("category_id = ?", id).Delete(&voteModel{}).Error; err != nil {
			return fmt.Errorf("gorm categoria: remover votos: %w", err)
		}
		if err := tx.Delete(&categoryModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("gorm categoria: remover: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return votesToDomain(removidos), nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id domain.CategoryID) (domain.Category, error) {
	db := r.db.WithContext(ctx)

	var model categoryModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if notFound(err) {
			return domain.Category{}, domain.ErrNotFound
		}
		return domain.Category{}, fmt.Errorf("gorm categoria: buscar id: %w", err)
	}

	membros, err := participantIDsByCategory(db, []string{model.ID})
	if err != nil {
		return domain.Category{}, err
	}
	return model.toDomain(membros[model.ID]), nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	db := r.db.WithContext(ctx)

	var models []categoryModel
	if err := db.
		// Ordenamos por nome e id para manter previsibilidade no painel e nas previsões.
		Order("name ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm categoria: listar: %w", err)
	}

	membros, err := participantIDsByCategory(db, nil)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Category, len(models))
	for i, model := range models {
		result[i] = model.toDomain(membros[model.ID])
	}
	return result, nil
}

func (r *CategoryRepository) ListWithParticipants(ctx context.Context) ([]domain.Category, error) {
	categorias, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	participantes, err := NewParticipantRepository(r.db).List(ctx)
	if err != nil {
		return nil, err
	}
	porID := make(map[domain.ParticipantID]domain.Participant, len(participantes))
	for _, p := range participantes {
		porID[p.ID] = p
	}

	for i := range categorias {
		embutidos := make([]domain.Participant, 0, len(categorias[i].ParticipantIDs))
		for _, pid := range categorias[i].ParticipantIDs {
			if p, ok := porID[pid]; ok {
				embutidos = append(embutidos, p)
			}
		}
		categorias[i].Participants = embutidos
	}
	return categorias, nil
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)
