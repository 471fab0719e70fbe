package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_QuandoSemCor_DeveEscreverTextoPuro(t *testing.T) {
	anterior := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = anterior })

	var out, errOut bytes.Buffer
	p := New(&out, &errOut)

	p.Success("seed aplicado")
	p.Field("token", "abc")
	err := p.Error("falha ao migrar", errors.New("conexao recusada"), "confira POSTGRES_HOST")

	assert.Contains(t, out.String(), "✓ seed aplicado\n")
	assert.Contains(t, out.String(), "token:")
	assert.Contains(t, out.String(), " abc\n")
	assert.Contains(t, errOut.String(), "falha ao migrar\nconexao recusada\n  - confira POSTGRES_HOST\n")
	assert.EqualError(t, err, "falha ao migrar: conexao recusada")
}
