// Pacote antifraude decide se uma submissão de cédula pode seguir: limite de tentativas
// por eleitor e bloqueio de origens que acumulam cédulas recusadas.
package antifraude

import (
	"context"
	"errors"

	"github.com/marcelojr/awards-voting/internal/domain"
)

var ErrRateLimitExceeded = errors.New("limite de tentativas atingido")

// Permissivo aceita toda cédula. Vale quando não há Redis ou o limite está desligado.
type Permissivo struct{}

func NewPermissivo() Permissivo {
	return Permissivo{}
}

func (Permissivo) Validar(context.Context, domain.UserID, string) error { return nil }

func (Permissivo) RegistrarFalha(context.Context, domain.UserID, string) error { return nil }

var _ domain.Antifraude = Permissivo{}
