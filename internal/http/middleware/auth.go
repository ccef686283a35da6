package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/repo"
)

type contextKey string

const (
	ContextKeyIdentidade contextKey = "identidade"
	ContextKeySessaoID   contextKey = "sessao_id"
)

// CookieSessao é o nome do cookie que carrega o id opaco da sessão.
const CookieSessao = "sessao"

type sessaoResolver interface {
	Obter(ctx context.Context, id string) (auth.Sessao, error)
}

type utilizadorLoader interface {
	GetUtilizador(ctx context.Context, id uuid.UUID) (repo.Utilizador, error)
}

// Sessao resolve o cookie em uma Identidade. Papel e província vêm da linha
// atual do utilizador, não do que foi gravado no login; conta removida
// derruba a sessão na hora.
func Sessao(sessoes sessaoResolver, utilizadores utilizadorLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieSessao)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente")
				return
			}

			sessao, err := sessoes.Obter(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão inválida ou expirada")
				return
			}

			user, err := utilizadores.GetUtilizador(r.Context(), sessao.UtilizadorID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão inválida ou expirada")
				return
			}

			identidade := acesso.Identidade{
				UtilizadorID: user.ID,
				Papel:        acesso.Papel(user.Papel),
				ProvinciaID:  user.ProvinciaID,
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentidade, identidade)
			ctx = context.WithValue(ctx, ContextKeySessaoID, cookie.Value)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentidade recupera a identidade do contexto.
func GetIdentidade(ctx context.Context) acesso.Identidade {
	val, _ := ctx.Value(ContextKeyIdentidade).(acesso.Identidade)
	return val
}

// GetSessaoID recupera o id da sessão do contexto.
func GetSessaoID(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySessaoID).(string)
	return val
}

// RequireAdmin garante papel de administrador.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentidade(r.Context()).Admin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
