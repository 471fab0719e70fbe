// Pacote catalog mantém categorias, participantes e a configuração da premiação.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/ids"
	"github.com/marcelojr/awards-voting/internal/platform/logger"
	"github.com/marcelojr/awards-voting/internal/platform/upload"
)

var (
	ErrCategoriaInvalida         = errors.New("categoria invalida")
	ErrParticipanteInvalido      = errors.New("participante invalido")
	ErrCategoriaNaoEncontrada    = errors.New("categoria nao encontrada")
	ErrParticipanteNaoEncontrado = errors.New("participante nao encontrado")
	ErrUploadFalhou              = errors.New("falha ao enviar imagem")
	ErrMetaInvalida              = errors.New("meta de votos invalida")
)

type CategoryInput struct {
	Name           string                 `json:"name"`
	Location       *string                `json:"location"`
	ParticipantIDs []domain.ParticipantID `json:"participant_ids"`
}

// ParticipantInput aceita em Thumbnail uma URL pública ou uma imagem embutida (data URL).
type ParticipantInput struct {
	Name        string              `json:"name"`
	Thumbnail   string              `json:"thumbnail"`
	Direction   string              `json:"direction"`
	Website     *string             `json:"website"`
	MapsAnchor  *string             `json:"maps_anchor"`
	CategoryIDs []domain.CategoryID `json:"category_ids"`
}

// BallotNotifier recebe os votos apagados junto com categorias e participantes.
type BallotNotifier interface {
	Notify(ctx context.Context, event domain.BallotEvent)
}

type Service struct {
	categories   domain.CategoryRepository
	participants domain.ParticipantRepository
	settings     domain.SettingsRepository
	uploader     domain.ImageUploader
	notifier     BallotNotifier
	clock        domain.Clock
	ids          domain.IDGenerator
}

func NewService(
	categories domain.CategoryRepository,
	participants domain.ParticipantRepository,
	settings domain.SettingsRepository,
	uploader domain.ImageUploader,
	notifier BallotNotifier,
	clock domain.Clock,
	idsGen domain.IDGenerator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if uploader == nil {
		uploader = upload.NewPassthrough()
	}
	return &Service{
		categories:   categories,
		participants: participants,
		settings:     settings,
		uploader:     uploader,
		notifier:     notifier,
		clock:        clock,
		ids:          idsGen,
	}
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) ListCategoriesWithParticipants(ctx context.Context) ([]domain.Category, error) {
	return s.categories.ListWithParticipants(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, auth domain.AuthContext, in CategoryInput) (domain.Category, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Category{}, err
	}
	in, err := normalizarCategoria(in)
	if err != nil {
		return domain.Category{}, err
	}

	agora := s.clock.Now()
	c := domain.Category{
		ID:             domain.CategoryID(s.ids.New()),
		Name:           in.Name,
		Location:       in.Location,
		ParticipantIDs: domain.UniqueIDs(in.ParticipantIDs),
		CriadoEm:       agora,
		AtualizadoEm:   agora,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return domain.Category{}, err
	}
	logger.Info("categoria criada", "category_id", c.ID, "admin_id", auth.UserID)
	return s.categories.FindByID(ctx, c.ID)
}

// EditCategory substitui nome, local e participantes; a diferença de participantes
// é aplicada nos dois lados da relação na mesma transação.
func (s *Service) EditCategory(ctx context.Context, auth domain.AuthContext, id domain.CategoryID, in CategoryInput) (domain.Category, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Category{}, err
	}
	in, err := normalizarCategoria(in)
	if err != nil {
		return domain.Category{}, err
	}

	c := domain.Category{
		ID:             id,
		Name:           in.Name,
		Location:       in.Location,
		ParticipantIDs: domain.UniqueIDs(in.ParticipantIDs),
		AtualizadoEm:   s.clock.Now(),
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return domain.Category{}, categoriaErr(err)
	}
	return s.categories.FindByID(ctx, id)
}

func (s *Service) DeleteCategory(ctx context.Context, auth domain.AuthContext, id domain.CategoryID) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}
	removidos, err := s.categories.Delete(ctx, id)
	if err != nil {
		return categoriaErr(err)
	}
	s.descontar(ctx, removidos)
	logger.Info("categoria removida", "category_id", id, "admin_id", auth.UserID, "votos", len(removidos))
	return nil
}

func (s *Service) ListParticipants(ctx context.Context, auth domain.AuthContext) ([]domain.Participant, error) {
	if err := auth.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.participants.List(ctx)
}

func (s *Service) CreateParticipant(ctx context.Context, auth domain.AuthContext, in ParticipantInput) (domain.Participant, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Participant{}, err
	}
	in, err := normalizarParticipante(in)
	if err != nil {
		return domain.Participant{}, err
	}
	thumbnail, err := s.resolverThumbnail(ctx, in.Thumbnail)
	if err != nil {
		return domain.Participant{}, err
	}

	agora := s.clock.Now()
	p := domain.Participant{
		ID:           domain.ParticipantID(s.ids.New()),
		Name:         in.Name,
		Thumbnail:    thumbnail,
		Direction:    in.Direction,
		Website:      in.Website,
		MapsAnchor:   in.MapsAnchor,
		CategoryIDs:  domain.UniqueIDs(in.CategoryIDs),
		CriadoEm:     agora,
		AtualizadoEm: agora,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return domain.Participant{}, err
	}
	logger.Info("participante criado", "participant_id", p.ID, "admin_id", auth.UserID)
	return s.participants.FindByID(ctx, p.ID)
}

func (s *Service) EditParticipant(ctx context.Context, auth domain.AuthContext, id domain.ParticipantID, in ParticipantInput) (domain.Participant, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.Participant{}, err
	}
	in, err := normalizarParticipante(in)
	if err != nil {
		return domain.Participant{}, err
	}
	if _, err := s.participants.FindByID(ctx, id); err != nil {
		return domain.Participant{}, participanteErr(err)
	}
	thumbnail, err := s.resolverThumbnail(ctx, in.Thumbnail)
	if err != nil {
		return domain.Participant{}, err
	}

	p := domain.Participant{
		ID:           id,
		Name:         in.Name,
		Thumbnail:    thumbnail,
		Direction:    in.Direction,
		Website:      in.Website,
		MapsAnchor:   in.MapsAnchor,
		CategoryIDs:  domain.UniqueIDs(in.CategoryIDs),
		AtualizadoEm: s.clock.Now(),
	}
	if err := s.participants.Update(ctx, p); err != nil {
		return domain.Participant{}, participanteErr(err)
	}
	return s.participants.FindByID(ctx, id)
}

func (s *Service) DeleteParticipant(ctx context.Context, auth domain.AuthContext, id domain.ParticipantID) error {
	if err := auth.RequireAdmin(); err != nil {
		return err
	}
	removidos, err := s.participants.Delete(ctx, id)
	if err != nil {
		return participanteErr(err)
	}
	s.descontar(ctx, removidos)
	logger.Info("participante removido", "participant_id", id, "admin_id", auth.UserID, "votos", len(removidos))
	return nil
}

// descontar avisa os contadores dos votos que saíram do livro, um evento por eleitor.
func (s *Service) descontar(ctx context.Context, votos []domain.Vote) {
	if s.notifier == nil || len(votos) == 0 {
		return
	}
	var ordem []domain.UserID
	porEleitor := make(map[domain.UserID][]domain.BallotEntry)
	for _, v := range votos {
		if _, ok := porEleitor[v.UserID]; !ok {
			ordem = append(ordem, v.UserID)
		}
		porEleitor[v.UserID] = append(porEleitor[v.UserID], domain.BallotEntry{CategoryID: v.CategoryID, ParticipantID: v.ParticipantID})
	}
	for _, u := range ordem {
		s.notifier.Notify(ctx, domain.BallotEvent{Type: domain.BallotPruned, UserID: u, Votes: porEleitor[u]})
	}
}

func (s *Service) Settings(ctx context.Context, auth domain.AuthContext) (domain.AwardSettings, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.AwardSettings{}, err
	}
	return s.settings.Get(ctx)
}

func (s *Service) SetVoteGoal(ctx context.Context, auth domain.AuthContext, goal int64) (domain.AwardSettings, error) {
	if err := auth.RequireAdmin(); err != nil {
		return domain.AwardSettings{}, err
	}
	if goal < 0 {
		return domain.AwardSettings{}, fmt.Errorf("%w: deve ser maior ou igual a zero", ErrMetaInvalida)
	}
	return s.settings.SetVoteGoal(ctx, goal)
}

// resolverThumbnail envia imagens embutidas para o serviço externo antes de qualquer escrita.
func (s *Service) resolverThumbnail(ctx context.Context, thumbnail string) (string, error) {
	if !upload.IsDataURL(thumbnail) {
		return thumbnail, nil
	}
	data, contentType, err := upload.DecodeDataURL(thumbnail)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParticipanteInvalido, err)
	}
	publica, err := s.uploader.Upload(ctx, data, contentType)
	if err != nil {
		logger.Warn("upload de thumbnail falhou", "erro", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFalhou, err)
	}
	return publica, nil
}

func normalizarCategoria(in CategoryInput) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(in.Name); n < 10 || n > 100 {
		return in, fmt.Errorf("%w: nome deve ter entre 10 e 100 caracteres", ErrCategoriaInvalida)
	}
	in.Location = opcional(in.Location)
	return in, nil
}

func normalizarParticipante(in ParticipantInput) (ParticipantInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Direction = strings.TrimSpace(in.Direction)
	in.Thumbnail = strings.TrimSpace(in.Thumbnail)
	in.Website = opcional(in.Website)
	in.MapsAnchor = opcional(in.MapsAnchor)

	if n := utf8.RuneCountInString(in.Name); n < 2 || n > 100 {
		return in, fmt.Errorf("%w: nome deve ter entre 2 e 100 caracteres", ErrParticipanteInvalido)
	}
	if n := utf8.RuneCountInString(in.Direction); n < 10 || n > 150 {
		return in, fmt.Errorf("%w: endereco deve ter entre 10 e 150 caracteres", ErrParticipanteInvalido)
	}
	if in.Thumbnail == "" {
		return in, fmt.Errorf("%w: thumbnail obrigatoria", ErrParticipanteInvalido)
	}
	if !upload.IsDataURL(in.Thumbnail) && !urlPublica(in.Thumbnail) {
		return in, fmt.Errorf("%w: thumbnail deve ser URL http(s) ou imagem embutida", ErrParticipanteInvalido)
	}
	if in.Website != nil && !urlPublica(*in.Website) {
		return in, fmt.Errorf("%w: website invalido", ErrParticipanteInvalido)
	}
	if len(domain.UniqueIDs(in.CategoryIDs)) == 0 {
		return in, fmt.Errorf("%w: informe ao menos uma categoria", ErrParticipanteInvalido)
	}
	return in, nil
}

func opcional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func urlPublica(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func categoriaErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrCategoriaNaoEncontrada
	}
	return err
}

func participanteErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrParticipanteNaoEncontrado
	}
	return err
}
