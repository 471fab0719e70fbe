package commands

import (
	"github.com/spf13/cobra"

	"github.com/marcelojr/awards-voting/internal/domain"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Gerencia usuários e sessões",
	}
	cmd.AddCommand(newUsersAddCmd(), newUsersDeleteCmd())
	return cmd
}

func newUsersAddCmd() *cobra.Command {
	var (
		email string
		nome  string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Registra um usuário e emite um token de sessão",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			amb, fechar, err := abrirAmbiente(cmd.Context(), false)
			if err != nil {
				return p.Error("falha ao abrir banco", err)
			}
			defer fechar()

			role := domain.RoleUser
			if admin {
				role = domain.RoleAdmin
			}
			u, err := amb.svc.Accounts.Register(cmd.Context(), domain.User{Email: email, Name: nome, Role: role})
			if err != nil {
				return p.Error("falha ao registrar usuario", err)
			}
			sess, err := amb.svc.Accounts.CreateSession(cmd.Context(), u.ID, amb.cfg.SessionTTL())
			if err != nil {
				return p.Error("falha ao criar sessao", err)
			}

			p.Success("usuario registrado")
			p.Field("id", u.ID)
			p.Field("email", u.Email)
			p.Field("papel", u.Role)
			p.Field("token", sess.Token)
			p.Field("expira", sess.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email do usuario")
	cmd.Flags().StringVar(&nome, "name", "", "nome de exibicao")
	cmd.Flags().BoolVar(&admin, "admin", false, "registra com papel ADMIN")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Remove o usuário com votos, sessões e logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			amb, fechar, err := abrirAmbiente(cmd.Context(), true)
			if err != nil {
				return p.Error("falha ao abrir banco", err)
			}
			defer fechar()

			if err := amb.svc.Accounts.DeleteUser(cmd.Context(), adminAuth(), domain.UserID(args[0])); err != nil {
				return p.Error("falha ao remover usuario", err)
			}
			p.Success("usuario %s removido", args[0])
			return nil
		},
	}
}
