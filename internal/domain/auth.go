package domain

// AuthContext é a identidade resolvida pelo provedor externo e repassada explicitamente
// para cada operação do núcleo, sem depender de sessão implícita.
type AuthContext struct {
	UserID UserID
	Role   Role
}

// Anonymous representa uma requisição sem sessão.
var Anonymous = AuthContext{}

func (a AuthContext) Authenticated() bool {
	return a.UserID != ""
}

func (a AuthContext) IsAdmin() bool {
	return a.Authenticated() && a.Role == RoleAdmin
}

// RequireUser valida que existe uma sessão; RequireAdmin exige também o papel ADMIN.
func (a AuthContext) RequireUser() error {
	if !a.Authenticated() {
		return ErrNaoAutenticado
	}
	return nil
}

func (a AuthContext) RequireAdmin() error {
	if err := a.RequireUser(); err != nil {
		return err
	}
	if a.Role != RoleAdmin {
		return ErrSemPermissao
	}
	return nil
}
