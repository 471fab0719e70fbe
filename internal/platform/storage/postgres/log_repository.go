package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/domain"
)

// ActivityLogRepository guarda a trilha de auditoria, só de anexação.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

type activityLogModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Type      string    `gorm:"column:type"`
	InvokerID *string   `gorm:"column:invoker_id"`
	Subject   *string   `gorm:"column:subject"`
	CriadoEm  time.Time `gorm:"column:criado_em"`
}

func (activityLogModel) TableName() string {
	return "activity_logs"
}

func (m activityLogModel) toDomain() domain.ActivityLog {
	entry := domain.ActivityLog{
		ID:       domain.LogID(m.ID),
		Type:     domain.LogType(m.Type),
		Subject:  m.Subject,
		CriadoEm: m.CriadoEm,
	}
	if m.InvokerID != nil {
		invoker := domain.UserID(*m.InvokerID)
		entry.InvokerID = &invoker
	}
	return entry
}

func fromDomainLog(l domain.ActivityLog) activityLogModel {
	model := activityLogModel{
		ID:       string(l.ID),
		Type:     string(l.Type),
		Subject:  l.Subject,
		CriadoEm: l.CriadoEm,
	}
	if l.InvokerID != nil {
		invoker := string(*l.InvokerID)
		model.InvokerID = &invoker
	}
	return model
}

func (r *ActivityLogRepository) Append(ctx context.Context, log domain.ActivityLog) error {
	model := fromDomainLog(log)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm logs: inserir: %w", err)
	}
	return nil
}

// Page implementa paginação por chave: ids são ULIDs, então ordem de id é ordem de criação
// e entradas novas sempre caem antes do cursor, sem deslocar as páginas seguintes.
func (r *ActivityLogRepository) Page(ctx context.Context, cursor *domain.LogID, limit int) ([]domain.ActivityLog, error) {
	db := r.db.WithContext(ctx)

	q := db.Model(&activityLogModel{})
	if cursor != nil {
		q = q.Where("id <= ?", string(*cursor))
	}

	var models []activityLogModel
	if err := q.Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm logs: paginar: %w", err)
	}

	invokers := make([]string, 0, len(models))
	for _, m := range models {
		if m.InvokerID != nil {
			invokers = append(invokers, *m.InvokerID)
		}
	}
	usuarios, err := usersByID(db, invokers)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ActivityLog, len(models))
	for i, m := range models {
		entry := m.toDomain()
		if m.InvokerID != nil {
			if u, ok := usuarios[*m.InvokerID]; ok {
				invoker := u.toDomain()
				entry.Invoker = &invoker
			}
		}
		result[i] = entry
	}
	return result, nil
}

var _ domain.ActivityLogRepository = (*ActivityLogRepository)(nil)
