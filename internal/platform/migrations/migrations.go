// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/awards-voting/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	// Usamos gormigrate para versionar as migrations sem depender de AutoMigrate direto em produção.
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202601100001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&domain.User{},
					&domain.Session{},
					&domain.Category{},
					&domain.Participant{},
					&domain.CategoryParticipant{},
					&domain.Vote{},
					&domain.Ballot{},
					&domain.ActivityLog{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"activity_logs", "ballots", "votes", "category_participants",
					"participants", "categories", "sessions", "users",
				)
			},
		},
		{
			ID: "202601150001_award_settings",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&domain.AwardSettings{}); err != nil {
					return err
				}
				// A linha única de configuração nasce com meta zerada.
				return tx.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&domain.AwardSettings{ID: domain.AwardsSettingsID}).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("award_settings")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
