package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const utilizadorCols = `id, username, email, senha_hash, nome, papel, provincia_id, provisoria, criado_em`

// CriarUtilizadorInput agrupa os campos de criação de conta.
type CriarUtilizadorInput struct {
	Username    string
	Email       string
	SenhaHash   string
	Nome        string
	Papel       string
	ProvinciaID uuid.UUID
	Provisoria  bool
}

// AtualizarUtilizadorInput aplica atualização parcial; campos nulos não mudam.
type AtualizarUtilizadorInput struct {
	Nome        *string
	Email       *string
	Username    *string
	Papel       *string
	ProvinciaID *uuid.UUID
}

// GetUtilizador busca conta pelo identificador.
func (q *Queries) GetUtilizador(ctx context.Context, id uuid.UUID) (Utilizador, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+utilizadorCols+` FROM utilizadores WHERE id = $1`, id)
	return scanUtilizador(row)
}

// GetUtilizadorPorUsername busca conta pelo username.
func (q *Queries) GetUtilizadorPorUsername(ctx context.Context, username string) (Utilizador, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT `+utilizadorCols+` FROM utilizadores WHERE username = $1`,
		strings.TrimSpace(username),
	)
	return scanUtilizador(row)
}

// GetUtilizadorPorEmail busca conta pelo email normalizado.
func (q *Queries) GetUtilizadorPorEmail(ctx context.Context, email string) (Utilizador, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT `+utilizadorCols+` FROM utilizadores WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanUtilizador(row)
}

// ListUtilizadores devolve todas as contas, mais recentes primeiro.
func (q *Queries) ListUtilizadores(ctx context.Context) ([]Utilizador, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT `+utilizadorCols+` FROM utilizadores ORDER BY criado_em DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var utilizadores []Utilizador
	for rows.Next() {
		u, err := scanUtilizador(rows)
		if err != nil {
			return nil, err
		}
		utilizadores = append(utilizadores, u)
	}

	return utilizadores, rows.Err()
}

// CountAdminsPorProvincia conta admins de uma província (limite de 5).
func (q *Queries) CountAdminsPorProvincia(ctx context.Context, provinciaID uuid.UUID) (int, error) {
	var total int
	err := q.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM utilizadores WHERE provincia_id = $1 AND papel = 'admin'`,
		provinciaID,
	).Scan(&total)
	return total, err
}

// CreateUtilizador insere nova conta e devolve o registro persistido.
func (q *Queries) CreateUtilizador(ctx context.Context, input CriarUtilizadorInput) (Utilizador, error) {
	const query = `
        INSERT INTO utilizadores (id, username, email, senha_hash, nome, papel, provincia_id, provisoria)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + utilizadorCols

	row := q.pool.QueryRow(ctx, query,
		uuid.New(),
		strings.TrimSpace(input.Username),
		strings.ToLower(strings.TrimSpace(input.Email)),
		input.SenhaHash,
		strings.TrimSpace(input.Nome),
		input.Papel,
		input.ProvinciaID,
		input.Provisoria,
	)
	return scanUtilizador(row)
}

// UpdateUtilizador aplica atualização parcial e devolve o registro novo.
func (q *Queries) UpdateUtilizador(ctx context.Context, id uuid.UUID, input AtualizarUtilizadorInput) (Utilizador, error) {
	const query = `
        UPDATE utilizadores
        SET nome = COALESCE($2, nome),
            email = COALESCE($3, email),
            username = COALESCE($4, username),
            papel = COALESCE($5, papel),
            provincia_id = COALESCE($6, provincia_id)
        WHERE id = $1
        RETURNING ` + utilizadorCols

	var email, username *string
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		email = &normalized
	}
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		username = &trimmed
	}

	row := q.pool.QueryRow(ctx, query, id, input.Nome, email, username, input.Papel, input.ProvinciaID)
	return scanUtilizador(row)
}

// UpdateSenha grava novo hash e o estado de senha provisória.
func (q *Queries) UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string, provisoria bool) error {
	tag, err := q.pool.Exec(ctx,
		`UPDATE utilizadores SET senha_hash = $2, provisoria = $3 WHERE id = $1`,
		id, senhaHash, provisoria,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUtilizador remove a conta.
func (q *Queries) DeleteUtilizador(ctx context.Context, id uuid.UUID) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM utilizadores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdminInicial cria a conta admin padrão quando ausente (bootstrap
// explícito chamado do main, não efeito colateral de import).
func (q *Queries) EnsureAdminInicial(ctx context.Context, senhaHash string) (bool, error) {
	_, err := q.GetUtilizadorPorUsername(ctx, "admin")
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	luanda, err := q.GetProvinciaPorNome(ctx, "Luanda")
	if err != nil {
		return false, err
	}

	_, err = q.CreateUtilizador(ctx, CriarUtilizadorInput{
		Username:    "admin",
		Email:       "admin@cruzvermelha.ao",
		SenhaHash:   senhaHash,
		Nome:        "Administrador",
		Papel:       "admin",
		ProvinciaID: luanda.ID,
		Provisoria:  false,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanUtilizador(row pgx.Row) (Utilizador, error) {
	var u Utilizador
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.SenhaHash, &u.Nome, &u.Papel, &u.ProvinciaID, &u.Provisoria, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Utilizador{}, ErrNotFound
		}
		return Utilizador{}, err
	}
	return u, nil
}
