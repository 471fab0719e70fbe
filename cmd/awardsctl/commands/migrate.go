package commands

import (
	"github.com/spf13/cobra"

	"github.com/marcelojr/awards-voting/internal/platform/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrations pendentes",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			amb, fechar, err := abrirAmbiente(cmd.Context(), false)
			if err != nil {
				return p.Error("falha ao abrir banco", err, "confira DB_DRIVER e as variaveis POSTGRES_*")
			}
			defer fechar()

			if err := migrations.Run(amb.db); err != nil {
				return p.Error("falha ao migrar", err)
			}
			p.Success("migrations aplicadas (%s)", amb.cfg.DBDriver)
			return nil
		},
	}
}
