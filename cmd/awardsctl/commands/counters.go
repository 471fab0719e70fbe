package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

func newCountersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counters",
		Short: "Operações sobre os contadores ao vivo no Redis",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Recalcula os contadores a partir do livro de votos",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			amb, fechar, err := abrirAmbiente(cmd.Context(), true)
			if err != nil {
				return p.Error("falha ao abrir banco", err)
			}
			defer fechar()

			if amb.svc.Counter == nil {
				return p.Error("redis indisponivel", errors.New("nao ha contadores para reconstruir"), "confira REDIS_ADDR")
			}
			if err := amb.svc.Voting.RebuildCounters(cmd.Context()); err != nil {
				return p.Error("falha ao reconstruir contadores", err)
			}
			p.Success("contadores reconstruidos")
			return nil
		},
	})
	return cmd
}
