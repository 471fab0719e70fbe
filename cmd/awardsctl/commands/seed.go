package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marcelojr/awards-voting/internal/app/seed"
)

func newSeedCmd() *cobra.Command {
	var arquivo string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Cria categorias, participantes e a meta de votos a partir de um YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)

			fh, err := os.Open(arquivo)
			if err != nil {
				return p.Error("falha ao abrir arquivo de seed", err, "informe o caminho com --file")
			}
			defer fh.Close()

			f, err := seed.Load(fh)
			if err != nil {
				return p.Error("arquivo de seed invalido", err)
			}

			amb, fechar, err := abrirAmbiente(cmd.Context(), false)
			if err != nil {
				return p.Error("falha ao abrir banco", err)
			}
			defer fechar()

			res, err := seed.Apply(cmd.Context(), amb.svc.Catalog, adminAuth(), f)
			if err != nil {
				return p.Error("falha ao aplicar seed", err)
			}

			p.Success("seed aplicado")
			p.Field("categorias", res.CategoriesCreated)
			p.Field("ignoradas", res.CategoriesSkipped)
			p.Field("participantes", res.ParticipantsCreated)
			p.Field("ignorados", res.ParticipantsSkipped)
			if res.VoteGoal != nil {
				p.Field("meta", *res.VoteGoal)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&arquivo, "file", "f", "seed.yaml", "arquivo YAML com categorias e participantes")
	return cmd
}
