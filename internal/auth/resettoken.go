package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GerarTokenRecuperacao cria o token de recuperação e seu hash persistível.
// O valor em claro (64 hex chars) só existe no email enviado; apenas o hash
// SHA-256 vai para o banco.
func GerarTokenRecuperacao() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = hex.EncodeToString(buf)
	hashed = HashTokenRecuperacao(raw)
	return raw, hashed, nil
}

// HashTokenRecuperacao produz o digest SHA-256 em hex.
func HashTokenRecuperacao(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
