package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcelojr/awards-voting/internal/domain"
)

const headerRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID devolve o id da requisição corrente (vazio fora do middleware).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder guarda o status escrito para o log de acesso.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// comRequestID reaproveita o X-Request-ID recebido ou gera um UUID, ecoa no response
// e registra método, rota, status e duração.
func comRequestID(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		logger.Info("requisicao",
			"request_id", id,
			"metodo", r.Method,
			"rota", r.URL.Path,
			"status", rec.status,
			"duracao_ms", time.Since(start).Milliseconds(),
		)
	})
}

type authHandler func(w http.ResponseWriter, r *http.Request, auth domain.AuthContext)

// autenticado resolve o token Bearer em AuthContext; sem sessão válida responde 401.
// O papel (ADMIN/USER) é conferido pelos serviços.
func (a *API) autenticado(h authHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, err := a.accounts.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			a.responderErro(w, r, err)
			return
		}
		h(w, r, auth)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// clientIP só aceita X-Forwarded-For e X-Real-IP quando a conexão vem de um proxy
// confiável. No X-Forwarded-For vale o salto mais à direita que não é proxy
// confiável; o que está à esquerda dele pode ter sido escrito pelo próprio cliente.
func clientIP(r *http.Request, confiaveis []netip.Prefix) string {
	remoto := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoto = host
	}
	addr, err := netip.ParseAddr(remoto)
	if err != nil || !confiavel(addr, confiaveis) {
		return remoto
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		saltos := strings.Split(xff, ",")
		for i := len(saltos) - 1; i >= 0; i-- {
			ip, err := netip.ParseAddr(strings.TrimSpace(saltos[i]))
			if err != nil {
				return remoto
			}
			if i == 0 || !confiavel(ip, confiaveis) {
				return ip.Unmap().String()
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip, err := netip.ParseAddr(xri); err == nil {
			return ip.Unmap().String()
		}
	}
	return remoto
}

func confiavel(ip netip.Addr, confiaveis []netip.Prefix) bool {
	ip = ip.Unmap()
	for _, p := range confiaveis {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
