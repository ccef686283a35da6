package exportar

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// Folha descreve uma aba da pasta de trabalho exportada.
type Folha struct {
	Nome       string
	Cabecalhos []string
	Linhas     [][]string
}

// EscreverXLSX monta uma pasta de trabalho com uma aba por Folha, cabeçalho
// em negrito e colunas com largura mínima legível.
func EscreverXLSX(folhas []Folha) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	negrito, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, folha := range folhas {
		if i == 0 {
			f.SetSheetName("Sheet1", folha.Nome)
		} else {
			if _, err := f.NewSheet(folha.Nome); err != nil {
				return nil, err
			}
		}

		for col, cabecalho := range folha.Cabecalhos {
			celula, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(folha.Nome, celula, cabecalho); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(folha.Nome, celula, celula, negrito); err != nil {
				return nil, err
			}

			largura := float64(len(cabecalho))
			if largura < 15 {
				largura = 15
			}
			nomeCol, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(folha.Nome, nomeCol, nomeCol, largura); err != nil {
				return nil, err
			}
		}

		for lin, linha := range folha.Linhas {
			for col, valor := range linha {
				celula, err := excelize.CoordinatesToCellName(col+1, lin+2)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellValue(folha.Nome, celula, valor); err != nil {
					return nil, err
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
