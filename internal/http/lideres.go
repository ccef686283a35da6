package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/repo"
	"github.com/cvangola/doadores/internal/service"
)

// ListarLideres devolve todas as contas (rota de admin).
func (h *Handler) ListarLideres(w http.ResponseWriter, r *http.Request) {
	utilizadores, err := h.lideres.Listar(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if utilizadores == nil {
		utilizadores = []repo.Utilizador{}
	}

	WriteJSON(w, http.StatusOK, utilizadores)
}

// CriarLider cadastra conta com senha provisória enviada por email.
func (h *Handler) CriarLider(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome        string `json:"name"`
		Username    string `json:"username"`
		Email       string `json:"email"`
		Papel       string `json:"role"`
		ProvinciaID string `json:"provinceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	provinciaID, err := uuid.Parse(payload.ProvinciaID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
		return
	}
	if payload.Papel == "" {
		payload.Papel = "leader"
	}

	user, err := h.lideres.Criar(r.Context(), service.CriarLiderInput{
		Nome:        payload.Nome,
		Username:    payload.Username,
		Email:       payload.Email,
		Papel:       payload.Papel,
		ProvinciaID: provinciaID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

// AtualizarLider aplica edição parcial de conta.
func (h *Handler) AtualizarLider(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload struct {
		Nome        *string `json:"name"`
		Username    *string `json:"username"`
		Email       *string `json:"email"`
		Papel       *string `json:"role"`
		ProvinciaID *string `json:"provinceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	input := repo.AtualizarUtilizadorInput{
		Nome:     payload.Nome,
		Username: payload.Username,
		Email:    payload.Email,
		Papel:    payload.Papel,
	}
	if payload.ProvinciaID != nil {
		provinciaID, err := uuid.Parse(*payload.ProvinciaID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
			return
		}
		input.ProvinciaID = &provinciaID
	}

	user, err := h.lideres.Atualizar(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// EliminarLider remove conta; a própria nunca.
func (h *Handler) EliminarLider(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	identidade := httpmiddleware.GetIdentidade(r.Context())

	if err := h.lideres.Eliminar(r.Context(), id, identidade.UtilizadorID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
