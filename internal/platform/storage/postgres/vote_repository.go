package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// VoteRepository é o livro de votos: grava cédulas inteiras e expõe as agregações do painel.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

type voteModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	UserID        string    `gorm:"column:user_id;index"`
	CategoryID    string    `gorm:"column:category_id;index"`
	ParticipantID string    `gorm:"column:participant_id;index"`
	CriadoEm      time.Time `gorm:"column:criado_em"`
}

func (voteModel) TableName() string {
	return "votes"
}

type ballotModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	SubmetidoEm time.Time `gorm:"column:submetido_em"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func (m voteModel) toDomain() domain.Vote {
	return domain.Vote{
		ID:            domain.VoteID(m.ID),
		UserID:        domain.UserID(m.UserID),
		CategoryID:    domain.CategoryID(m.CategoryID),
		ParticipantID: domain.ParticipantID(m.ParticipantID),
		CriadoEm:      m.CriadoEm,
	}
}

func votesToDomain(models []voteModel) []domain.Vote {
	result := make([]domain.Vote, len(models))
	for i, m := range models {
		result[i] = m.toDomain()
	}
	return result
}

func fromDomainVote(v domain.Vote) voteModel {
	return voteModel{
		ID:            string(v.ID),
		UserID:        string(v.UserID),
		CategoryID:    string(v.CategoryID),
		ParticipantID: string(v.ParticipantID),
		CriadoEm:      v.CriadoEm,
	}
}

// SubmitBallot confere se o usuário já votou e grava cédula, votos e log numa transação.
// A linha em ballots tem user_id como chave primária: se duas submissões do mesmo usuário
// correrem juntas, a segunda esbarra na chave duplicada e vira ErrAlreadyVoted.
func (r *VoteRepository) SubmitBallot(ctx context.Context, userID domain.UserID, votes []domain.Vote, log domain.ActivityLog) error {
	models := make([]voteModel, len(votes))
	for i, v := range votes {
		v.UserID = userID
		models[i] = fromDomainVote(v)
	}
	logRow := fromDomainLog(log)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existentes int64
		if err := tx.Model(&voteModel{}).Where("user_id = ?", userID).Count(&existentes).Error; err != nil {
			return fmt.Errorf("gorm votos: conferir cedula anterior: %w", err)
		}
		if existentes > 0 {
			return domain.ErrAlreadyVoted
		}

		ballot := ballotModel{UserID: string(userID), SubmetidoEm: logRow.CriadoEm}
		if err := tx.Create(&ballot).Error; err != nil {
			if isDuplicate(err) {
				return domain.ErrAlreadyVoted
			}
			return fmt.Errorf("gorm votos: registrar cedula: %w", err)
		}

		if len(models) > 0 {
			if err := tx.Create(&models).Error; err != nil {
				if isDuplicate(err) {
					return fmt.Errorf("gorm votos: inserir: %w", domain.ErrDuplicado)
				}
				return fmt.Errorf("gorm votos: inserir: %w", err)
			}
		}

		if err := tx.Create(&logRow).Error; err != nil {
			return fmt.Errorf("gorm votos: registrar log: %w", err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyVoted) {
		return domain.ErrAlreadyVoted
	}
	return err
}

// ListByUser devolve os votos com categoria e participante já embutidos para exibição.
func (r *VoteRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Vote, error) {
	db := r.db.WithContext(ctx)

	var models []voteModel
	if err := db.Where("user_id = ?", userID).
		Order("criado_em ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: listar por usuario: %w", err)
	}
	if len(models) == 0 {
		return []domain.Vote{}, nil
	}

	categoryIDs := make([]string, 0, len(models))
	participantIDs := make([]string, 0, len(models))
	for _, m := range models {
		categoryIDs = append(categoryIDs, m.CategoryID)
		participantIDs = append(participantIDs, m.ParticipantID)
	}

	var categorias []categoryModel
	if err := db.Where("id IN ?", categoryIDs).Find(&categorias).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: carregar categorias: %w", err)
	}
	var participantes []participantModel
	if err := db.Where("id IN ?", participantIDs).Find(&participantes).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: carregar participantes: %w", err)
	}

	catPorID := make(map[string]categoryModel, len(categorias))
	for _, c := range categorias {
		catPorID[c.ID] = c
	}
	partPorID := make(map[string]participantModel, len(participantes))
	for _, p := range participantes {
		partPorID[p.ID] = p
	}

	result := make([]domain.Vote, len(models))
	for i, m := range models {
		v := m.toDomain()
		if c, ok := catPorID[m.CategoryID]; ok {
			cat := c.toDomain(nil)
			v.Category = &cat
		}
		if p, ok := partPorID[m.ParticipantID]; ok {
			part := p.toDomain(nil)
			v.Participant = &part
		}
		result[i] = v
	}
	return result, nil
}

// HasVoted considera tanto votos quanto a marca de cédula, que é o que bloqueia nova submissão.
func (r *VoteRepository) HasVoted(ctx context.Context, userID domain.UserID) (bool, error) {
	db := r.db.WithContext(ctx)

	var cedulas int64
	if err := db.Model(&ballotModel{}).Where("user_id = ?", userID).Count(&cedulas).Error; err != nil {
		return false, fmt.Errorf("gorm votos: conferir cedula: %w", err)
	}
	if cedulas > 0 {
		return true, nil
	}

	var votos int64
	if err := db.Model(&voteModel{}).Where("user_id = ?", userID).Count(&votos).Error; err != nil {
		return false, fmt.Errorf("gorm votos: conferir votos: %w", err)
	}
	return votos > 0, nil
}

// RemoveByUser apaga votos e cédula do usuário, liberando-o para votar de novo.
// O log de atividades não é tocado.
func (r *VoteRepository) RemoveByUser(ctx context.Context, userID domain.UserID) ([]domain.Vote, error) {
	var removidos []voteModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Find(&removidos).Error; err != nil {
			return fmt.Errorf("gorm votos: listar para remover: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&voteModel{}).Error; err != nil {
			return fmt.Errorf("gorm votos: remover: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&ballotModel{}).Error; err != nil {
			return fmt.Errorf("gorm votos: remover cedula: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return votesToDomain(removidos), nil
}

// TotalsByParticipant agrupa o livro inteiro por (categoria, participante).
func (r *VoteRepository) TotalsByParticipant(ctx context.Context) ([]domain.Tally, error) {
	type resultado struct {
		CategoryID    string
		ParticipantID string
		Total         int64
	}
	var res []resultado
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("category_id AS category_id, participant_id AS participant_id, COUNT(*) AS total").
		Group("category_id, participant_id").
		Order("category_id ASC, participant_id ASC").
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: total por participante: %w", err)
	}

	totais := make([]domain.Tally, len(res))
	for i, item := range res {
		totais[i] = domain.Tally{
			CategoryID:    domain.CategoryID(item.CategoryID),
			ParticipantID: domain.ParticipantID(item.ParticipantID),
			Total:         item.Total,
		}
	}
	return totais, nil
}

func (r *VoteRepository) CountVoters(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ballotModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm votos: total eleitores: %w", err)
	}
	return total, nil
}

var _ domain.VoteRepository = (*VoteRepository)(nil)
