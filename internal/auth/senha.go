package auth

import (
	"crypto/rand"
	"math/big"
)

const senhaProvisoriaChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GerarSenhaProvisoria devolve uma senha aleatória de 8 caracteres enviada
// por email ao novo líder (conta marcada como provisória até a troca).
func GerarSenhaProvisoria() (string, error) {
	out := make([]byte, 8)
	max := big.NewInt(int64(len(senhaProvisoriaChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = senhaProvisoriaChars[n.Int64()]
	}
	return string(out), nil
}
