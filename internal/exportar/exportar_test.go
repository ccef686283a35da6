package exportar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEscreverCSV(t *testing.T) {
	got := EscreverCSV(
		[]string{"Nome", "Tipo Sanguíneo"},
		[][]string{
			{"Maria José", "O+"},
			{`Disse "sim"`, "AB-"},
		},
	)

	want := "\uFEFF" +
		"\"Nome\",\"Tipo Sanguíneo\"\n" +
		"\"Maria José\",\"O+\"\n" +
		"\"Disse \"\"sim\"\"\",\"AB-\"\n"
	assert.Equal(t, want, string(got))
}

func TestEscreverCSVSemLinhas(t *testing.T) {
	got := EscreverCSV([]string{"Nome"}, nil)

	assert.True(t, bytes.HasPrefix(got, []byte("\uFEFF")))
	assert.Equal(t, "\uFEFF\"Nome\"\n", string(got))
}

func TestEscreverXLSX(t *testing.T) {
	dados, err := EscreverXLSX([]Folha{
		{
			Nome:       "Doadores",
			Cabecalhos: []string{"Nome Completo", "BI"},
			Linhas:     [][]string{{"Maria José", "004567890LA042"}},
		},
		{
			Nome:       "Doações",
			Cabecalhos: []string{"Data"},
			Linhas:     [][]string{{"2026-01-15"}},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(dados))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Doadores", "Doações"}, f.GetSheetList())

	valor, err := f.GetCellValue("Doadores", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Maria José", valor)

	cab, err := f.GetCellValue("Doadores", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Nome Completo", cab)

	largura, err := f.GetColWidth("Doadores", "A")
	require.NoError(t, err)
	assert.True(t, largura >= 14, "largura mínima de coluna, veio %f", largura)
}

func TestEscreverXLSXCabecalhoLongo(t *testing.T) {
	cabecalho := strings.Repeat("x", 30)
	dados, err := EscreverXLSX([]Folha{{Nome: "Visão Geral", Cabecalhos: []string{cabecalho}}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(dados))
	require.NoError(t, err)
	defer f.Close()

	largura, err := f.GetColWidth("Visão Geral", "A")
	require.NoError(t, err)
	assert.True(t, largura >= 29, "coluna acompanha o cabeçalho, veio %f", largura)
}
