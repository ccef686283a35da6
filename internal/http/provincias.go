package http

import "net/http"

// ListProvincias devolve a lista fixa de províncias.
func (h *Handler) ListProvincias(w http.ResponseWriter, r *http.Request) {
	provincias, err := h.queries.ListProvincias(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao listar províncias", nil)
		return
	}
	WriteJSON(w, http.StatusOK, provincias)
}
