package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cvangola/doadores/internal/exportar"
	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/repo"
	"github.com/cvangola/doadores/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var cabecalhosDoadores = []string{
	"Número do BI", "Nome Completo", "Data de Nascimento", "Idade", "Gênero",
	"Município", "Bairro", "Contato", "Cargo", "Departamento", "Tipo Sanguíneo",
	"Fator RH", "Tem Histórico", "Doações Anteriores", "Última Doação",
	"Restrições Médicas", "Apto para Doar", "Disponível para Futuro",
	"Contato Preferido", "Observações",
}

var cabecalhosDoacoes = []string{
	"ID da Doação", "Número do BI", "Nome do Doador", "Tipo Sanguíneo",
	"Data da Doação", "Hora da Doação", "Observações",
}

// ExportarDoadores gera CSV ou XLSX dos doadores do escopo.
func (h *Handler) ExportarDoadores(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())
	q := r.URL.Query()

	filtro := repo.FiltroDoadores{
		Texto:         q.Get("query"),
		TipoSanguineo: tipoSanguineoFiltro(q.Get("bloodType")),
	}

	doadores, err := h.doadores.Pesquisar(r.Context(), identidade, nil, filtro)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	linhas := make([][]string, 0, len(doadores))
	for _, d := range doadores {
		linhas = append(linhas, []string{
			d.NumeroBI,
			d.NomeCompleto,
			d.DataNascimento,
			strconv.Itoa(d.Idade),
			generoPorExtenso(d.Genero),
			d.Municipio,
			d.Bairro,
			d.Contacto,
			d.Cargo,
			d.Departamento,
			d.TipoSanguineo,
			fatorRHPorExtenso(d.FatorRH),
			simNao(d.TemHistorico),
			strconv.Itoa(d.DoacoesAnteriores),
			d.UltimaDoacao,
			d.RestricoesMedicas,
			simNao(d.AptoParaDoar),
			simNao(d.DisponivelFuturo),
			d.ContactoPreferido,
			d.Observacoes,
		})
	}

	nome := "doadores_" + time.Now().Format("2006-01-02")

	if q.Get("format") == "xlsx" {
		h.escreverXLSX(w, nome, []exportar.Folha{
			{Nome: "Doadores", Cabecalhos: cabecalhosDoadores, Linhas: linhas},
		})
		return
	}
	escreverCSV(w, nome, cabecalhosDoadores, linhas)
}

// ExportarDoacoes gera CSV ou XLSX das doações do escopo, com filtros de
// doador e intervalo de datas.
func (h *Handler) ExportarDoacoes(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())
	q := r.URL.Query()

	filtro := repo.FiltroDoacoes{
		De:  q.Get("dateFrom"),
		Ate: q.Get("dateTo"),
	}
	if raw := q.Get("donorId"); raw != "" {
		doadorID, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "doador inválido", nil)
			return
		}
		filtro.DoadorID = &doadorID
	}

	doacoes, err := h.estatisticas.DoacoesDetalhadas(r.Context(), identidade, filtro)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	linhas := make([][]string, 0, len(doacoes))
	for _, d := range doacoes {
		linhas = append(linhas, []string{
			d.ID.String(),
			d.DoadorNumeroBI,
			d.DoadorNome,
			d.TipoSanguineo,
			d.DataDoacao,
			d.HoraDoacao,
			d.Notas,
		})
	}

	nome := "doacoes_" + time.Now().Format("2006-01-02")

	if q.Get("format") == "xlsx" {
		h.escreverXLSX(w, nome, []exportar.Folha{
			{Nome: "Doações", Cabecalhos: cabecalhosDoacoes, Linhas: linhas},
		})
		return
	}
	escreverCSV(w, nome, cabecalhosDoacoes, linhas)
}

// ExportarRelatorios gera o relatório "overview" do painel. No XLSX são duas
// abas; no CSV tudo vira uma tabela Tipo/Item/Valor.
func (h *Handler) ExportarRelatorios(w http.ResponseWriter, r *http.Request) {
	identidade := httpmiddleware.GetIdentidade(r.Context())
	q := r.URL.Query()

	tipo := q.Get("type")
	if tipo == "" {
		tipo = "overview"
	}
	if tipo != "overview" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "Parâmetros inválidos", nil)
		return
	}

	resumo, err := h.estatisticas.Resumo(r.Context(), identidade, nil)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	geral := [][]string{
		{"Total de Doadores", strconv.Itoa(resumo.TotalDoadores)},
		{"Total de Doações", strconv.Itoa(resumo.TotalDoacoes)},
		{"Doadores Ativos", strconv.Itoa(resumo.DoadoresAptos)},
		{"Novos Este Mês", strconv.Itoa(resumo.NovosEsteMes)},
	}

	porTipo := make([][]string, 0, len(resumo.PorTipo))
	for _, tipo := range service.TiposSanguineos {
		e := resumo.PorTipo[tipo]
		porTipo = append(porTipo, []string{
			tipo,
			strconv.Itoa(e.Total),
			fmt.Sprintf("%d%%", e.Percentual),
		})
	}

	nome := "relatorio_" + tipo + "_" + time.Now().Format("2006-01-02")

	if q.Get("format") == "xlsx" {
		h.escreverXLSX(w, nome, []exportar.Folha{
			{Nome: "Visão Geral", Cabecalhos: []string{"Métrica", "Valor"}, Linhas: geral},
			{Nome: "Por Tipo Sanguíneo", Cabecalhos: []string{"Tipo Sanguíneo", "Quantidade", "Percentual"}, Linhas: porTipo},
		})
		return
	}

	linhas := make([][]string, 0, len(geral)+len(porTipo))
	for _, linha := range geral {
		linhas = append(linhas, []string{"Geral", linha[0], linha[1]})
	}
	for _, linha := range porTipo {
		linhas = append(linhas, []string{"Tipo Sanguíneo", linha[0], fmt.Sprintf("%s (%s)", linha[1], linha[2])})
	}

	escreverCSV(w, nome, []string{"Tipo", "Item", "Valor"}, linhas)
}

func escreverCSV(w http.ResponseWriter, nome string, cabecalhos []string, linhas [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nome+".csv"))
	_, _ = w.Write(exportar.EscreverCSV(cabecalhos, linhas))
}

func (h *Handler) escreverXLSX(w http.ResponseWriter, nome string, folhas []exportar.Folha) {
	dados, err := exportar.EscreverXLSX(folhas)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao gerar planilha", nil)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nome+".xlsx"))
	_, _ = w.Write(dados)
}

func generoPorExtenso(g string) string {
	if g == "M" {
		return "Masculino"
	}
	return "Feminino"
}

func fatorRHPorExtenso(f string) string {
	if f == "positive" {
		return "Positivo"
	}
	return "Negativo"
}

func simNao(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
