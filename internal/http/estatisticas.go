package http

import (
	"net/http"

	"github.com/google/uuid"

	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
)

// Estatisticas devolve o resumo do painel dentro do escopo do chamador.
func (h *Handler) Estatisticas(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())

	var provinciaFiltro *uuid.UUID
	if raw := r.URL.Query().Get("provinceId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
			return
		}
		provinciaFiltro = &parsed
	}

	resumo, err := h.estatisticas.Resumo(r.Context(), identidade, provinciaFiltro)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resumo)
}
