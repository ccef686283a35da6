package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries provê acesso ao armazenamento relacional.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o repositório sobre um pool injetado (sem estado global).
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}
