package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tokenCols = `id, email, token_hash, expira_em, usado_em, criado_em`

// CreateTokenRecuperacao grava um novo token (apenas o hash) com validade dada.
func (q *Queries) CreateTokenRecuperacao(ctx context.Context, email, tokenHash string, expiraEm time.Time) (TokenRecuperacao, error) {
	const query = `
        INSERT INTO tokens_recuperacao (id, email, token_hash, expira_em)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + tokenCols

	row := q.pool.QueryRow(ctx, query,
		uuid.New(),
		strings.ToLower(strings.TrimSpace(email)),
		tokenHash,
		expiraEm,
	)
	return scanToken(row)
}

// GetTokenValido busca pelo hash um token ainda não usado e dentro da
// validade. Token usado ou vencido devolve ErrNotFound.
func (q *Queries) GetTokenValido(ctx context.Context, tokenHash string) (TokenRecuperacao, error) {
	const query = `
        SELECT ` + tokenCols + `
        FROM tokens_recuperacao
        WHERE token_hash = $1 AND usado_em IS NULL AND expira_em >= now()
    `

	row := q.pool.QueryRow(ctx, query, tokenHash)
	return scanToken(row)
}

// MarcarTokenUsado carimba usado_em; tokens usados nunca voltam a valer.
func (q *Queries) MarcarTokenUsado(ctx context.Context, id uuid.UUID) error {
	tag, err := q.pool.Exec(ctx,
		`UPDATE tokens_recuperacao SET usado_em = now() WHERE id = $1 AND usado_em IS NULL`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTokensPorEmail apaga todos os tokens do email (garante no máximo um
// token vivo por conta).
func (q *Queries) DeleteTokensPorEmail(ctx context.Context, email string) error {
	_, err := q.pool.Exec(ctx,
		`DELETE FROM tokens_recuperacao WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return err
}

// DeleteTokensExpirados remove tokens vencidos e devolve quantos saíram.
func (q *Queries) DeleteTokensExpirados(ctx context.Context) (int, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM tokens_recuperacao WHERE expira_em < now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (TokenRecuperacao, error) {
	var t TokenRecuperacao
	err := row.Scan(&t.ID, &t.Email, &t.TokenHash, &t.ExpiraEm, &t.UsadoEm, &t.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRecuperacao{}, ErrNotFound
		}
		return TokenRecuperacao{}, err
	}
	return t, nil
}
