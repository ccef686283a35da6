package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cvangola/doadores/internal/acesso"
	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/repo"
	"github.com/cvangola/doadores/internal/service"
)

// Login autentica por username/senha e emite o cookie de sessão.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username    string `json:"username"`
		Senha       string `json:"password"`
		ProvinciaID string `json:"provinceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "username e senha são obrigatórios", nil)
		return
	}

	var provinciaID uuid.UUID
	if payload.ProvinciaID != "" {
		parsed, err := uuid.Parse(payload.ProvinciaID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
			return
		}
		provinciaID = parsed
	}

	result, err := h.authService.Login(r.Context(), payload.Username, payload.Senha, provinciaID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCredenciaisInvalidas):
			WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
		case errors.Is(err, service.ErrProvinciaErrada):
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
		}
		return
	}

	h.setSessionCookie(w, result.SessaoID)
	WriteJSON(w, http.StatusOK, result.Utilizador)
}

// Logout destrói a sessão e expira o cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	_ = h.authService.Logout(r.Context(), httpmiddleware.GetSessaoID(r.Context()))
	h.clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me devolve a conta da sessão corrente.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())

	user, err := h.authService.GetUtilizador(r.Context(), identidade.UtilizadorID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// AlterarSenha troca a senha da conta autenticada exigindo a atual.
func (h *Handler) AlterarSenha(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SenhaAtual string `json:"currentPassword"`
		SenhaNova  string `json:"newPassword"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	identidade := httpmiddleware.GetIdentidade(r.Context())
	if err := h.authService.AlterarSenha(r.Context(), identidade.UtilizadorID, payload.SenhaAtual, payload.SenhaNova); err != nil {
		switch {
		case errors.Is(err, service.ErrSenhaCurta):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		case errors.Is(err, service.ErrSenhaAtualInvalida):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			h.writeServiceError(w, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PedirRecuperacao inicia a recuperação de senha. A resposta é idêntica com
// email conhecido ou não.
func (h *Handler) PedirRecuperacao(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email       string `json:"email"`
		ProvinciaID string `json:"provinceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Email) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email é obrigatório", nil)
		return
	}

	var provinciaID *uuid.UUID
	if payload.ProvinciaID != "" {
		parsed, err := uuid.Parse(payload.ProvinciaID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
			return
		}
		provinciaID = &parsed
	}

	if err := h.recuperacao.Pedir(r.Context(), payload.Email, provinciaID); err != nil {
		if errors.Is(err, service.ErrEnvioEmail) {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "Erro ao enviar email de recuperação", nil)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Se o email existir, as instruções de recuperação foram enviadas",
	})
}

// RedefinirComToken consome o token de recuperação e grava a senha nova.
func (h *Handler) RedefinirComToken(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Token string `json:"token"`
		Senha string `json:"newPassword"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.recuperacao.Redefinir(r.Context(), payload.Email, payload.Token, payload.Senha); err != nil {
		switch {
		case errors.Is(err, service.ErrSenhaCurta):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		case errors.Is(err, service.ErrTokenInvalido):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			h.writeServiceError(w, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Senha redefinida com sucesso"})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessaoID string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     httpmiddleware.CookieSessao,
		Value:    sessaoID,
		Path:     "/",
		MaxAge:   int(h.sessoes.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     httpmiddleware.CookieSessao,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// writeServiceError mapeia erros sentinela dos serviços para o envelope.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado", nil)
	case errors.Is(err, acesso.ErrAcessoNegado), errors.Is(err, acesso.ErrSemContexto):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case errors.Is(err, service.ErrLimiteAdmins),
		errors.Is(err, service.ErrAutoEliminacao):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, service.ErrNumeroBIEmUso),
		errors.Is(err, service.ErrDoadorInvalido),
		errors.Is(err, service.ErrDataDoacaoObrigatoria),
		errors.Is(err, service.ErrCamposObrigatorios),
		errors.Is(err, service.ErrPapelInvalido),
		errors.Is(err, service.ErrEmailEmUso),
		errors.Is(err, service.ErrContaDuplicada):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
