// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para os serviços.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/marcelojr/awards-voting/internal/app/accounts"
	"github.com/marcelojr/awards-voting/internal/app/catalog"
	"github.com/marcelojr/awards-voting/internal/app/voting"
	"github.com/marcelojr/awards-voting/internal/domain"
	"github.com/marcelojr/awards-voting/internal/platform/antifraude"
	"github.com/marcelojr/awards-voting/internal/platform/upload"
)

// maxBody comporta thumbnails embutidas como data URL.
const maxBody = 8 << 20

var errPayloadInvalido = errors.New("payload invalido")

type API struct {
	voting   VotingService
	catalog  CatalogService
	accounts AccountsService
	logger   *slog.Logger
	proxies  []netip.Prefix
}

func New(votingSvc VotingService, catalogSvc CatalogService, accountsSvc AccountsService, logger *slog.Logger) *API {
	return &API{
		voting:   votingSvc,
		catalog:  catalogSvc,
		accounts: accountsSvc,
		logger:   logger,
	}
}

// WithTrustedProxies define as redes cujos cabeçalhos de encaminhamento valem como
// origem da requisição. Sem proxies, a origem é sempre o endereço da conexão.
func (a *API) WithTrustedProxies(proxies []netip.Prefix) *API {
	a.proxies = proxies
	return a
}

// Register concentra a tabela de rotas para que servidor e testes usem o mesmo mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /votes", a.autenticado(a.enviarVotos))
	mux.HandleFunc("GET /votes/me", a.autenticado(a.meusVotos))
	mux.HandleFunc("GET /votes/me/status", a.autenticado(a.jaVotou))

	mux.HandleFunc("GET /admin/users/{userId}/votes", a.autenticado(a.votosDoUsuario))
	mux.HandleFunc("GET /admin/users/{userId}/votes/status", a.autenticado(a.usuarioVotou))
	mux.HandleFunc("DELETE /admin/users/{userId}/votes", a.autenticado(a.removerVotos))
	mux.HandleFunc("DELETE /admin/users/{userId}", a.autenticado(a.removerUsuario))

	mux.HandleFunc("GET /categories", a.listarCategorias)
	mux.HandleFunc("GET /categories/participants", a.listarCategoriasComParticipantes)
	mux.HandleFunc("GET /categories/predictions", a.autenticado(a.previsoes))
	mux.HandleFunc("POST /categories", a.autenticado(a.criarCategoria))
	mux.HandleFunc("PUT /categories/{id}", a.autenticado(a.editarCategoria))
	mux.HandleFunc("DELETE /categories/{id}", a.autenticado(a.removerCategoria))

	mux.HandleFunc("GET /participants", a.autenticado(a.listarParticipantes))
	mux.HandleFunc("POST /participants", a.autenticado(a.criarParticipante))
	mux.HandleFunc("PUT /participants/{id}", a.autenticado(a.editarParticipante))
	mux.HandleFunc("DELETE /participants/{id}", a.autenticado(a.removerParticipante))

	mux.HandleFunc("GET /logs", a.autenticado(a.logs))
	mux.HandleFunc("GET /awards/settings", a.autenticado(a.configuracao))
	mux.HandleFunc("PUT /awards/settings", a.autenticado(a.definirMeta))
	mux.HandleFunc("GET /stats", a.autenticado(a.painel))
}

// Handler devolve o mux já envolvido pelo middleware de request id e log.
func (a *API) Handler(mux *http.ServeMux) http.Handler {
	a.Register(mux)
	return comRequestID(a.logger, mux)
}

// === votos ===

type cedulaRequest struct {
	Votes []domain.BallotEntry `json:"votes"`
}

func (a *API) enviarVotos(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var req cedulaRequest
	if err := decodificar(w, r, &req); err != nil {
		a.responderErro(w, r, err)
		return
	}

	ctx := voting.WithOrigem(r.Context(), clientIP(r, a.proxies))
	if err := a.voting.SubmitBallot(ctx, auth, req.Votes); err != nil {
		a.responderErro(w, r, err)
		return
	}

	a.logger.Info("cedula registrada", "user_id", auth.UserID, "votos", len(req.Votes), "request_id", RequestID(r.Context()))
	responderJSON(w, http.StatusCreated, map[string]string{"status": "registrada"})
}

func (a *API) meusVotos(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	votos, err := a.voting.MyVotes(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, votos)
}

func (a *API) jaVotou(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	votou, err := a.voting.HasVoted(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]bool{"voted": votou})
}

func (a *API) votosDoUsuario(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	votos, err := a.voting.VotesForUser(r.Context(), auth, domain.UserID(r.PathValue("userId")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, votos)
}

func (a *API) usuarioVotou(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	votou, err := a.voting.HasVotes(r.Context(), auth, domain.UserID(r.PathValue("userId")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]bool{"voted": votou})
}

func (a *API) removerVotos(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	removidos, err := a.voting.RemoveVotes(r.Context(), auth, domain.UserID(r.PathValue("userId")))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, map[string]int64{"removed": removidos})
}

func (a *API) removerUsuario(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	if err := a.accounts.DeleteUser(r.Context(), auth, domain.UserID(r.PathValue("userId"))); err != nil {
		a.responderErro(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === categorias ===

func (a *API) listarCategorias(w http.ResponseWriter, r *http.Request) {
	categorias, err := a.catalog.ListCategories(r.Context())
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, categorias)
}

func (a *API) listarCategoriasComParticipantes(w http.ResponseWriter, r *http.Request) {
	categorias, err := a.catalog.ListCategoriesWithParticipants(r.Context())
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, categorias)
}

func (a *API) previsoes(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	previsoes, err := a.voting.Predictions(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, previsoes)
}

func (a *API) criarCategoria(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var in catalog.CategoryInput
	if err := decodificar(w, r, &in); err != nil {
		a.responderErro(w, r, err)
		return
	}
	c, err := a.catalog.CreateCategory(r.Context(), auth, in)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusCreated, c)
}

func (a *API) editarCategoria(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var in catalog.CategoryInput
	if err := decodificar(w, r, &in); err != nil {
		a.responderErro(w, r, err)
		return
	}
	c, err := a.catalog.EditCategory(r.Context(), auth, domain.CategoryID(r.PathValue("id")), in)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, c)
}

func (a *API) removerCategoria(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	if err := a.catalog.DeleteCategory(r.Context(), auth, domain.CategoryID(r.PathValue("id"))); err != nil {
		a.responderErro(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === participantes ===

func (a *API) listarParticipantes(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	participantes, err := a.catalog.ListParticipants(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, participantes)
}

func (a *API) criarParticipante(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var in catalog.ParticipantInput
	if err := decodificar(w, r, &in); err != nil {
		a.responderErro(w, r, err)
		return
	}
	p, err := a.catalog.CreateParticipant(r.Context(), auth, in)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusCreated, p)
}

func (a *API) editarParticipante(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var in catalog.ParticipantInput
	if err := decodificar(w, r, &in); err != nil {
		a.responderErro(w, r, err)
		return
	}
	p, err := a.catalog.EditParticipant(r.Context(), auth, domain.ParticipantID(r.PathValue("id")), in)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, p)
}

func (a *API) removerParticipante(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	if err := a.catalog.DeleteParticipant(r.Context(), auth, domain.ParticipantID(r.PathValue("id"))); err != nil {
		a.responderErro(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === log, configuração e painel ===

func (a *API) logs(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	page, err := a.accounts.ActivityLogs(r.Context(), auth, r.URL.Query().Get("cursor"))
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, page)
}

func (a *API) configuracao(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	cfg, err := a.catalog.Settings(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, cfg)
}

type metaRequest struct {
	VoteGoal *int64 `json:"vote_goal"`
}

func (a *API) definirMeta(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	var req metaRequest
	if err := decodificar(w, r, &req); err != nil {
		a.responderErro(w, r, err)
		return
	}
	if req.VoteGoal == nil {
		a.responderErro(w, r, fmt.Errorf("%w: vote_goal obrigatorio", errPayloadInvalido))
		return
	}
	cfg, err := a.catalog.SetVoteGoal(r.Context(), auth, *req.VoteGoal)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, cfg)
}

func (a *API) painel(w http.ResponseWriter, r *http.Request, auth domain.AuthContext) {
	stats, err := a.voting.LiveStats(r.Context(), auth)
	if err != nil {
		a.responderErro(w, r, err)
		return
	}
	responderJSON(w, http.StatusOK, stats)
}

// === respostas ===

func decodificar(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errPayloadInvalido, err)
	}
	return nil
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *API) responderErro(w http.ResponseWriter, r *http.Request, err error) {
	status := statusDoErro(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("erro interno", "err", err, "rota", r.URL.Path, "request_id", RequestID(r.Context()))
		msg = "erro interno"
	} else {
		a.logger.Warn("requisicao recusada", "err", err, "status", status, "rota", r.URL.Path, "request_id", RequestID(r.Context()))
	}
	responderJSON(w, status, map[string]string{"erro": msg})
}

func statusDoErro(err error) int {
	switch {
	case errors.Is(err, domain.ErrNaoAutenticado):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSemPermissao):
		return http.StatusForbidden
	case errors.Is(err, errPayloadInvalido),
		errors.Is(err, voting.ErrBallotInvalido),
		errors.Is(err, voting.ErrCategoriaDesconhecida),
		errors.Is(err, voting.ErrParticipanteForaDaCategoria),
		errors.Is(err, catalog.ErrCategoriaInvalida),
		errors.Is(err, catalog.ErrParticipanteInvalido),
		errors.Is(err, catalog.ErrMetaInvalida),
		errors.Is(err, upload.ErrImagemInvalida),
		errors.Is(err, accounts.ErrCursorInvalido),
		errors.Is(err, domain.ErrReferenciaInvalida):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrCategoriaNaoEncontrada),
		errors.Is(err, catalog.ErrParticipanteNaoEncontrado),
		errors.Is(err, accounts.ErrUsuarioNaoEncontrado),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, accounts.ErrEmailEmUso),
		errors.Is(err, domain.ErrDuplicado):
		return http.StatusConflict
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, catalog.ErrUploadFalhou):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
