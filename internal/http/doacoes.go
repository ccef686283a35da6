package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/repo"
)

// HistoricoDoacoes devolve as doações de um doador.
func (h *Handler) HistoricoDoacoes(w http.ResponseWriter, r *http.Request) {
	doadorID, err := uuid.Parse(chi.URLParam(r, "donorId"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	doacoes, err := h.doadores.Historico(r.Context(), doadorID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if doacoes == nil {
		doacoes = []repo.Doacao{}
	}

	WriteJSON(w, http.StatusOK, doacoes)
}

// RegistarDoacao grava doação para um doador.
func (h *Handler) RegistarDoacao(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DoadorID   string `json:"donorId"`
		DataDoacao string `json:"donationDate"`
		HoraDoacao string `json:"donationTime"`
		Notas      string `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	doadorID, err := uuid.Parse(payload.DoadorID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "doador inválido", nil)
		return
	}

	doacao, err := h.doadores.RegistrarDoacao(r.Context(), repo.CriarDoacaoInput{
		DoadorID:   doadorID,
		DataDoacao: payload.DataDoacao,
		HoraDoacao: payload.HoraDoacao,
		Notas:      payload.Notas,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, doacao)
}

// DoacoesRecentes lista as últimas doações visíveis ao chamador.
func (h *Handler) DoacoesRecentes(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())

	limite := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "limite inválido", nil)
			return
		}
		limite = n
	}

	doacoes, err := h.estatisticas.DoacoesRecentes(r.Context(), identidade, limite)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if doacoes == nil {
		doacoes = []repo.DoacaoDetalhada{}
	}

	WriteJSON(w, http.StatusOK, doacoes)
}
