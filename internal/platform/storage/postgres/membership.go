package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// categoryParticipantModel é a tabela de junção; os dois lados da relação são lidos daqui,
// então a simetria categoria<->participante vale por construção.
type categoryParticipantModel struct {
	CategoryID    string `gorm:"column:category_id;primaryKey"`
	ParticipantID string `gorm:"column:participant_id;primaryKey"`
}

func (categoryParticipantModel) TableName() string {
	return "category_participants"
}

// participantIDsByCategory agrupa os membros por categoria. Sem filtro, carrega todas.
func participantIDsByCategory(tx *gorm.DB, categoryIDs []string) (map[string][]domain.ParticipantID, error) {
	var rows []categoryParticipantModel
	q := tx.Model(&categoryParticipantModel{})
	if categoryIDs != nil {
		q = q.Where("category_id IN ?", categoryIDs)
	}
	if err := q.Order("category_id ASC, participant_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gorm membros: listar por categoria: %w", err)
	}

	result := make(map[string][]domain.ParticipantID)
	for _, row := range rows {
		result[row.CategoryID] = append(result[row.CategoryID], domain.ParticipantID(row.ParticipantID))
	}
	return result, nil
}

func categoryIDsByParticipant(tx *gorm.DB, participantIDs []string) (map[string][]domain.CategoryID, error) {
	var rows []categoryParticipantModel
	q := tx.Model(&categoryParticipantModel{})
	if participantIDs != nil {
		q = q.Where("participant_id IN ?", participantIDs)
	}
	if err := q.Order("participant_id ASC, category_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gorm membros: listar por participante: %w", err)
	}

	result := make(map[string][]domain.CategoryID)
	for _, row := range rows {
		result[row.ParticipantID] = append(result[row.ParticipantID], domain.CategoryID(row.CategoryID))
	}
	return result, nil
}

// ensureExist confere, dentro da transação, que todos os ids existem na tabela informada.
func ensureExist(tx *gorm.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var total int64
	if err := tx.Table(table).Where("id IN ?", ids).Count(&total).Error; err != nil {
		return fmt.Errorf("gorm membros: conferir %s: %w", table, err)
	}
	if total != int64(len(ids)) {
		return fmt.Errorf("%w: %d de %d ids em %s", domain.ErrReferenciaInvalida, total, len(ids), table)
	}
	return nil
}

// connect insere as linhas novas da junção em um único INSERT.
func connect(tx *gorm.DB, rows []categoryParticipantModel) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("gorm membros: conectar: %w", err)
	}
	return nil
}

// disconnect remove os pares de um lado fixo contra uma lista do outro lado.
func disconnect(tx *gorm.DB, fixedColumn, fixedID, otherColumn string, otherIDs []string) error {
	if len(otherIDs) == 0 {
		return nil
	}
	if err := tx.Where(fixedColumn+" = ? AND "+otherColumn+" IN ?", fixedID, otherIDs).
		Delete(&categoryParticipantModel{}).Error; err != nil {
		return fmt.Errorf("gorm membros: desconectar: %w", err)
	}
	return nil
}
