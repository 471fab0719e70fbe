// Pacote seed carrega categorias, participantes e a meta de votos a partir de um arquivo YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcelojr/awards-voting/internal/app/catalog"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
)

var ErrArquivoInvalido = errors.New("arquivo de seed invalido")

type File struct {
	VoteGoal     *int64        `yaml:"vote_goal"`
	Categories   []Category    `yaml:"categories"`
	Participants []Participant `yaml:"participants"`
}

type Category struct {
	Name     string  `yaml:"name"`
	Location *string `yaml:"location"`
}

// Participant referencia categorias pelo nome, como aparecem no mesmo arquivo.
type Participant struct {
	Name       string   `yaml:"name"`
	Thumbnail  string   `yaml:"thumbnail"`
	Direction  string   `yaml:"direction"`
	Website    *string  `yaml:"website"`
	MapsAnchor *string  `yaml:"maps_anchor"`
	Categories []string `yaml:"categories"`
}

// Load decodifica o YAML e confere nomes repetidos e referências a categorias.
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("%w: arquivo vazio", ErrArquivoInvalido)
		}
		return File{}, fmt.Errorf("%w: %v", ErrArquivoInvalido, err)
	}

	categorias := make(map[string]struct{}, len(f.Categories))
	for _, c := range f.Categories {
		chave := normalizar(c.Name)
		if _, ok := categorias[chave]; ok {
			return File{}, fmt.Errorf("%w: categoria repetida %q", ErrArquivoInvalido, c.Name)
		}
		categorias[chave] = struct{}{}
	}

	participantes := make(map[string]struct{}, len(f.Participants))
	for _, p := range f.Participants {
		chave := normalizar(p.Name)
		if _, ok := participantes[chave]; ok {
			return File{}, fmt.Errorf("%w: participante repetido %q", ErrArquivoInvalido, p.Name)
		}
		participantes[chave] = struct{}{}
		for _, nome := range p.Categories {
			if _, ok := categorias[normalizar(nome)]; !ok {
				return File{}, fmt.Errorf("%w: participante %q cita categoria desconhecida %q", ErrArquivoInvalido, p.Name, nome)
			}
		}
	}
	return f, nil
}

// Catalog é o recorte do serviço de catálogo usado pelo seed.
type Catalog interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, auth domain.AuthContext, in catalog.CategoryInput) (domain.Category, error)
	ListParticipants(ctx context.Context, auth domain.AuthContext) ([]domain.Participant, error)
	CreateParticipant(ctx context.Context, auth domain.AuthContext, in catalog.ParticipantInput) (domain.Participant, error)
	SetVoteGoal(ctx context.Context, auth domain.AuthContext, goal int64) (domain.AwardSettings, error)
}

type Result struct {
	CategoriesCreated   int
	CategoriesSkipped   int
	ParticipantsCreated int
	ParticipantsSkipped int
	VoteGoal            *int64
}

// Apply cria o que ainda não existe, casando por nome; rodar duas vezes não duplica nada.
func Apply(ctx context.Context, svc Catalog, auth domain.AuthContext, f File) (Result, error) {
	var res Result

	existentes, err := svc.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	categoriaPorNome := make(map[string]domain.CategoryID, len(existentes))
	for _, c := range existentes {
		categoriaPorNome[normalizar(c.Name)] = c.ID
	}

	for _, c := range f.Categories {
		if _, ok := categoriaPorNome[normalizar(c.Name)]; ok {
			res.CategoriesSkipped++
			continue
		}
		criada, err := svc.CreateCategory(ctx, auth, catalog.CategoryInput{Name: c.Name, Location: c.Location})
		if err != nil {
			return res, fmt.Errorf("categoria %q: %w", c.Name, err)
		}
		categoriaPorNome[normalizar(c.Name)] = criada.ID
		res.CategoriesCreated++
	}

	participantes, err := svc.ListParticipants(ctx, auth)
	if err != nil {
		return res, err
	}
	jaExiste := make(map[string]struct{}, len(participantes))
	for _, p := range participantes {
		jaExiste[normalizar(p.Name)] = struct{}{}
	}

	for _, p := range f.Participants {
		if _, ok := jaExiste[normalizar(p.Name)]; ok {
			res.ParticipantsSkipped++
			continue
		}
		cats := make([]domain.CategoryID, 0, len(p.Categories))
		for _, nome := range p.Categories {
			cats = append(cats, categoriaPorNome[normalizar(nome)])
		}
		_, err := svc.CreateParticipant(ctx, auth, catalog.ParticipantInput{
			Name:        p.Name,
			Thumbnail:   p.Thumbnail,
			Direction:   p.Direction,
			Website:     p.Website,
			MapsAnchor:  p.MapsAnchor,
			CategoryIDs: cats,
		})
		if err != nil {
			return res, fmt.Errorf("participante %q: %w", p.Name, err)
		}
		jaExiste[normalizar(p.Name)] = struct{}{}
		res.ParticipantsCreated++
	}

	if f.VoteGoal != nil {
		cfg, err := svc.SetVoteGoal(ctx, auth, *f.VoteGoal)
		if err != nil {
			return res, err
		}
		res.VoteGoal = &cfg.VoteGoal
	}

	logger.Info("seed aplicado",
		"categorias_criadas", res.CategoriesCreated,
		"participantes_criados", res.ParticipantsCreated,
	)
	return res, nil
}

func normalizar(nome string) string {
	return strings.ToLower(strings.TrimSpace(nome))
}
