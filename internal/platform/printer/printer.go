// Pacote printer formata a saída colorida do awardsctl.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer escreve em out (mensagens) e errOut (falhas); NO_COLOR desliga as cores.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ "+format+"\n", a...)
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! "+format+"\n", a...)
}

// Field imprime um par chave/valor alinhado, com a chave em ciano.
func (p *Printer) Field(key string, value any) {
	cyan.Fprintf(p.out, "  %-12s", key+":")
	fmt.Fprintf(p.out, " %v\n", value)
}

// Error imprime título e sugestões em errOut e devolve um erro simples para o cobra.
func (p *Printer) Error(title string, err error, suggestions ...string) error {
	red.Fprintf(p.errOut, "%s\n", title)
	if err != nil {
		fmt.Fprintf(p.errOut, "%v\n", err)
	}
	for _, s := range suggestions {
		fmt.Fprintf(p.errOut, "  - %s\n", s)
	}
	return fmt.Errorf("%s: %w", title, err)
}
