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

// doadorPayload é o corpo aceito no cadastro e na edição de doadores.
type doadorPayload struct {
	NumeroBI          *string `json:"biNumber"`
	NomeCompleto      *string `json:"fullName"`
	DataNascimento    *string `json:"birthDate"`
	Idade             *int    `json:"age"`
	Genero            *string `json:"gender"`
	Municipio         *string `json:"municipality"`
	Bairro            *string `json:"neighborhood"`
	Contacto          *string `json:"contact"`
	Cargo             *string `json:"position"`
	Departamento      *string `json:"department"`
	TipoSanguineo     *string `json:"bloodType"`
	FatorRH           *string `json:"rhFactor"`
	TemHistorico      *bool   `json:"hasHistory"`
	DoacoesAnteriores *int    `json:"previousDonations"`
	UltimaDoacao      *string `json:"lastDonation"`
	RestricoesMedicas *string `json:"medicalRestrictions"`
	AptoParaDoar      *bool   `json:"isAptToDonate"`
	DisponivelFuturo  *bool   `json:"availableForFuture"`
	ContactoPreferido *string `json:"preferredContact"`
	Observacoes       *string `json:"observations"`
}

// PesquisarDoadores lista doadores dentro do escopo, com filtros da query.
func (h *Handler) PesquisarDoadores(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())

	q := r.URL.Query()

	var provinciaFiltro *uuid.UUID
	if raw := q.Get("provinceId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "província inválida", nil)
			return
		}
		provinciaFiltro = &parsed
	}

	filtro := repo.FiltroDoadores{
		Texto:            q.Get("query"),
		TipoSanguineo:    tipoSanguineoFiltro(q.Get("bloodType")),
		Genero:           q.Get("gender"),
		Municipio:        q.Get("municipality"),
		Departamento:     q.Get("department"),
		CriadoDe:         q.Get("createdDateFrom"),
		CriadoAte:        q.Get("createdDateTo"),
		UltimaDoacaoDe:   q.Get("lastDonationFrom"),
		UltimaDoacaoAte:  q.Get("lastDonationTo"),
		OrdenarPor:       q.Get("sortBy"),
		Ordem:            q.Get("sortOrder"),
		IdadeMin:         queryInt(q.Get("ageMin")),
		IdadeMax:         queryInt(q.Get("ageMax")),
		Apto:             queryBool(q.Get("isAptToDonate")),
		DisponivelFuturo: queryBool(q.Get("availableForFuture")),
		TemHistorico:     queryBool(q.Get("hasHistory")),
	}

	doadores, err := h.doadores.Pesquisar(r.Context(), identidade, provinciaFiltro, filtro)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if doadores == nil {
		doadores = []repo.Doador{}
	}

	WriteJSON(w, http.StatusOK, doadores)
}

// ObterDoador busca doador pelo id da rota.
func (h *Handler) ObterDoador(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	doador, err := h.doadores.Obter(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doador)
}

// CriarDoador cadastra doador com província e criador da sessão.
func (h *Handler) CriarDoador(w http.ResponseWriter, r *http.Request) {
	var payload doadorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	identidade := httpmiddleware.GetIdentidade(r.Context())

	doador, err := h.doadores.Criar(r.Context(), identidade, payload.paraCriacao())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, doador)
}

// AtualizarDoador aplica edição parcial dentro das regras de posse.
func (h *Handler) AtualizarDoador(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload doadorPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	identidade := httpmiddleware.GetIdentidade(r.Context())

	doador, err := h.doadores.Atualizar(r.Context(), identidade, id, payload.paraAtualizacao())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doador)
}

// EliminarDoador remove o doador dentro das regras de posse.
func (h *Handler) EliminarDoador(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	identidade := httpmiddleware.GetIdentidade(r.Context())

	if err := h.doadores.Eliminar(r.Context(), identidade, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (p doadorPayload) paraCriacao() repo.CriarDoadorInput {
	var input repo.CriarDoadorInput
	input.ContactoPreferido = "call"

	if p.NumeroBI != nil {
		input.NumeroBI = *p.NumeroBI
	}
	if p.NomeCompleto != nil {
		input.NomeCompleto = *p.NomeCompleto
	}
	if p.DataNascimento != nil {
		input.DataNascimento = *p.DataNascimento
	}
	if p.Idade != nil {
		input.Idade = *p.Idade
	}
	if p.Genero != nil {
		input.Genero = *p.Genero
	}
	if p.Municipio != nil {
		input.Municipio = *p.Municipio
	}
	if p.Bairro != nil {
		input.Bairro = *p.Bairro
	}
	if p.Contacto != nil {
		input.Contacto = *p.Contacto
	}
	if p.Cargo != nil {
		input.Cargo = *p.Cargo
	}
	if p.Departamento != nil {
		input.Departamento = *p.Departamento
	}
	if p.TipoSanguineo != nil {
		input.TipoSanguineo = *p.TipoSanguineo
	}
	if p.FatorRH != nil {
		input.FatorRH = *p.FatorRH
	}
	if p.TemHistorico != nil {
		input.TemHistorico = *p.TemHistorico
	}
	if p.DoacoesAnteriores != nil {
		input.DoacoesAnteriores = *p.DoacoesAnteriores
	}
	if p.UltimaDoacao != nil {
		input.UltimaDoacao = *p.UltimaDoacao
	}
	if p.RestricoesMedicas != nil {
		input.RestricoesMedicas = *p.RestricoesMedicas
	}
	if p.AptoParaDoar != nil {
		input.AptoParaDoar = *p.AptoParaDoar
	}
	if p.DisponivelFuturo != nil {
		input.DisponivelFuturo = *p.DisponivelFuturo
	}
	if p.ContactoPreferido != nil {
		input.ContactoPreferido = *p.ContactoPreferido
	}
	if p.Observacoes != nil {
		input.Observacoes = *p.Observacoes
	}

	return input
}

func (p doadorPayload) paraAtualizacao() repo.AtualizarDoadorInput {
	return repo.AtualizarDoadorInput{
		NumeroBI:          p.NumeroBI,
		NomeCompleto:      p.NomeCompleto,
		DataNascimento:    p.DataNascimento,
		Idade:             p.Idade,
		Genero:            p.Genero,
		Municipio:         p.Municipio,
		Bairro:            p.Bairro,
		Contacto:          p.Contacto,
		Cargo:             p.Cargo,
		Departamento:      p.Departamento,
		TipoSanguineo:     p.TipoSanguineo,
		FatorRH:           p.FatorRH,
		TemHistorico:      p.TemHistorico,
		DoacoesAnteriores: p.DoacoesAnteriores,
		UltimaDoacao:      p.UltimaDoacao,
		RestricoesMedicas: p.RestricoesMedicas,
		AptoParaDoar:      p.AptoParaDoar,
		DisponivelFuturo:  p.DisponivelFuturo,
		ContactoPreferido: p.ContactoPreferido,
		Observacoes:       p.Observacoes,
	}
}

// tipoSanguineoFiltro limpa o valor "all" que o painel envia quando nenhum
// tipo está selecionado.
func tipoSanguineoFiltro(raw string) string {
	if raw == "all" {
		return ""
	}
	return raw
}

func queryInt(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func queryBool(raw string) *bool {
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
