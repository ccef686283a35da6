package exportar

import (
	"bytes"
	"strings"
)

// EscreverCSV monta um CSV com BOM UTF-8, todos os campos entre aspas e
// quebras de linha LF. O pacote encoding/csv só cita campos quando precisa,
// e o consumidor (Excel em português) espera o formato sempre citado.
func EscreverCSV(cabecalhos []string, linhas [][]string) []byte {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	escreverLinha(&buf, cabecalhos)
	for _, linha := range linhas {
		escreverLinha(&buf, linha)
	}

	return buf.Bytes()
}

func escreverLinha(buf *bytes.Buffer, campos []string) {
	for i, campo := range campos {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(campo, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
