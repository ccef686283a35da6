package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cvangola/doadores/internal/db"
)

// provinciasAngola é a lista fixa semeada na primeira execução.
var provinciasAngola = []string{
	"Luanda", "Bengo", "Benguela", "Bié", "Cabinda", "Cunene", "Huambo",
	"Huíla", "Kuando Kubango", "Kwanza Norte", "Kwanza Sul",
	"Lunda Norte", "Lunda Sul", "Malanje", "Moxico", "Namibe", "Uíge", "Zaire",
}

// ListProvincias devolve todas as províncias ordenadas pela criação.
func (q *Queries) ListProvincias(ctx context.Context) ([]Provincia, error) {
	const query = `
        SELECT id, nome, criado_em
        FROM provincias
        ORDER BY criado_em ASC
    `

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var provincias []Provincia
	for rows.Next() {
		var p Provincia
		if err := rows.Scan(&p.ID, &p.Nome, &p.CriadoEm); err != nil {
			return nil, err
		}
		provincias = append(provincias, p)
	}

	return provincias, rows.Err()
}

// GetProvincia busca província pelo identificador.
func (q *Queries) GetProvincia(ctx context.Context, id uuid.UUID) (Provincia, error) {
	const query = `SELECT id, nome, criado_em FROM provincias WHERE id = $1`

	var p Provincia
	if err := q.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Nome, &p.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provincia{}, ErrNotFound
		}
		return Provincia{}, err
	}
	return p, nil
}

// GetProvinciaPorNome busca província pelo nome exato.
func (q *Queries) GetProvinciaPorNome(ctx context.Context, nome string) (Provincia, error) {
	const query = `SELECT id, nome, criado_em FROM provincias WHERE nome = $1`

	var p Provincia
	if err := q.pool.QueryRow(ctx, query, nome).Scan(&p.ID, &p.Nome, &p.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provincia{}, ErrNotFound
		}
		return Provincia{}, err
	}
	return p, nil
}

// SeedProvincias insere a lista fixa quando a tabela está vazia.
func (q *Queries) SeedProvincias(ctx context.Context) error {
	return db.WithTx(ctx, q.pool, func(tctx context.Context, tx pgx.Tx) error {
		var total int
		if err := tx.QueryRow(tctx, `SELECT COUNT(*) FROM provincias`).Scan(&total); err != nil {
			return err
		}
		if total > 0 {
			return nil
		}

		for _, nome := range provinciasAngola {
			if _, err := tx.Exec(tctx,
				`INSERT INTO provincias (id, nome) VALUES ($1, $2)`,
				uuid.New(), nome,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
