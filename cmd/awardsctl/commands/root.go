package commands

import (
	"context"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/marcelojr/awards-voting/internal/app/bootstrap"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/config"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
	"github.com/marcelojr/awards-voting/internal/platform/printer"
)

// adminSistema assina as operações feitas pelo awardsctl quando --admin-id não é informado.
const adminSistema = domain.UserID("00000000000000000000000000")

var adminID string

// NewRootCmd monta a árvore de comandos; os testes criam uma instância nova a cada caso.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "awardsctl",
		Short: "Administração da premiação: migrations, seed, usuários e contadores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&adminID, "admin-id", string(adminSistema), "id do administrador registrado como autor das operações")

	root.AddCommand(newMigrateCmd(), newSeedCmd(), newUsersCmd(), newCountersCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

func adminAuth() domain.AuthContext {
	return domain.AuthContext{UserID: domain.UserID(adminID), Role: domain.RoleAdmin}
}

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// ambiente carrega configuração e banco; o Redis é aberto só quando disponível.
type ambiente struct {
	cfg config.Config
	db  *gorm.DB
	svc bootstrap.Services
}

func abrirAmbiente(ctx context.Context, comRedis bool) (*ambiente, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	fechar := func() { sqlDB.Close() }
	amb := &ambiente{cfg: cfg, db: db}
	if comRedis {
		if rdb := bootstrap.OpenRedis(ctx, cfg); rdb != nil {
			fechar = func() {
				rdb.Close()
				sqlDB.Close()
			}
			// Sem fila: o awardsctl aplica os eventos direto nos contadores.
			cfg.AsyncCounters = false
			amb.svc = bootstrap.Build(cfg, db, rdb)
			return amb, fechar, nil
		}
	}
	amb.svc = bootstrap.Build(cfg, db, nil)
	return amb, fechar, nil
}
