// awardsctl administra a premiação pela linha de comando: migrations, seed, usuários e contadores.
package main

import (
	"os"

	"github.com/marcelojr/awards-voting/cmd/awardsctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
