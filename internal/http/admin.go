package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// LimparTokens remove tokens de recuperação vencidos (rotina de admin).
func (h *Handler) LimparTokens(w http.ResponseWriter, r *http.Request) {
	removidos, err := h.recuperacao.LimparExpirados(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int{"removed": removidos})
}

// RegistarAdminEmergencia cadastra um admin fora do fluxo normal. Fora de
// desenvolvimento a rota exige a chave EMERGENCY_ADMIN_KEY.
func (h *Handler) RegistarAdminEmergencia(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Chave       string `json:"key"`
		Nome        string `json:"name"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		Senha       string `json:"password"`
		ProvinciaID string `json:"provinceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if h.cfg.Producao() || h.cfg.EmergencyAdminKey != "" {
		if subtle.ConstantTimeCompare([]byte(payload.Chave), []byte(h.cfg.EmergencyAdminKey)) != 1 {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "chave inválida", nil)
			return
		}
	}

	provinciaID, err := uuid.Parse(payload.ProvinciaID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
		return
	}

	user, err := h.lideres.CriarAdminEmergencia(r.Context(),
		payload.Nome, payload.Username, payload.Email, payload.Senha, provinciaID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}
