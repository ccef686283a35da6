package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const doacaoCols = `id, doador_id, data_doacao, hora_doacao, notas, criado_em`

// CriarDoacaoInput agrupa os campos do registro de doação.
type CriarDoacaoInput struct {
	DoadorID   uuid.UUID
	DataDoacao string
	HoraDoacao string
	Notas      string
}

// FiltroDoacoes restringe a listagem detalhada.
type FiltroDoacoes struct {
	DoadorID *uuid.UUID
	De       string
	Ate      string
}

// GetDoacao busca doação pelo identificador.
func (q *Queries) GetDoacao(ctx context.Context, id uuid.UUID) (Doacao, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+doacaoCols+` FROM doacoes WHERE id = $1`, id)
	return scanDoacao(row)
}

// ListDoacoesPorDoador devolve o histórico de um doador, mais recentes primeiro.
func (q *Queries) ListDoacoesPorDoador(ctx context.Context, doadorID uuid.UUID) ([]Doacao, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT `+doacaoCols+` FROM doacoes WHERE doador_id = $1 ORDER BY data_doacao DESC, criado_em DESC`,
		doadorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doacoes []Doacao
	for rows.Next() {
		d, err := scanDoacao(rows)
		if err != nil {
			return nil, err
		}
		doacoes = append(doacoes, d)
	}

	return doacoes, rows.Err()
}

// CreateDoacao insere a doação e devolve o registro persistido. Não valida a
// existência do doador; registros órfãos são aceitos.
func (q *Queries) CreateDoacao(ctx context.Context, input CriarDoacaoInput) (Doacao, error) {
	const query = `
        INSERT INTO doacoes (id, doador_id, data_doacao, hora_doacao, notas)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + doacaoCols

	row := q.pool.QueryRow(ctx, query,
		uuid.New(), input.DoadorID, input.DataDoacao, input.HoraDoacao, input.Notas,
	)
	return scanDoacao(row)
}

// CountDoacoesPorDoadores conta doações dos doadores dados. Lista vazia
// devolve zero sem consultar o banco.
func (q *Queries) CountDoacoesPorDoadores(ctx context.Context, doadorIDs []uuid.UUID) (int, error) {
	if len(doadorIDs) == 0 {
		return 0, nil
	}

	var total int
	err := q.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doacoes WHERE doador_id = ANY($1)`,
		doadorIDs,
	).Scan(&total)
	return total, err
}

// ListDoacoesRecentes devolve as últimas doações com dados do doador. Quando
// provinciaID é não nulo, restringe à província do doador; doações órfãs ficam
// de fora por causa do join.
func (q *Queries) ListDoacoesRecentes(ctx context.Context, provinciaID *uuid.UUID, limite int) ([]DoacaoDetalhada, error) {
	query := `
        SELECT dc.id, dc.doador_id, dc.data_doacao, dc.hora_doacao, dc.notas, dc.criado_em,
               dr.nome_completo, dr.numero_bi, dr.tipo_sanguineo
        FROM doacoes dc
        JOIN doadores dr ON dr.id = dc.doador_id`

	var args []any
	if provinciaID != nil {
		args = append(args, *provinciaID)
		query += ` WHERE dr.provincia_id = $1`
	}

	args = append(args, limite)
	query += fmt.Sprintf(` ORDER BY dc.criado_em DESC LIMIT $%d`, len(args))

	return q.listDetalhadas(ctx, query, args)
}

// ListDoacoesDetalhadas devolve doações com dados do doador, filtradas e
// ordenadas pela data da doação.
func (q *Queries) ListDoacoesDetalhadas(ctx context.Context, provinciaID *uuid.UUID, filtro FiltroDoacoes) ([]DoacaoDetalhada, error) {
	query := `
        SELECT dc.id, dc.doador_id, dc.data_doacao, dc.hora_doacao, dc.notas, dc.criado_em,
               dr.nome_completo, dr.numero_bi, dr.tipo_sanguineo
        FROM doacoes dc
        JOIN doadores dr ON dr.id = dc.doador_id`

	var (
		conds []string
		args  []any
	)
	if provinciaID != nil {
		args = append(args, *provinciaID)
		conds = append(conds, fmt.Sprintf(`dr.provincia_id = $%d`, len(args)))
	}
	if filtro.DoadorID != nil {
		args = append(args, *filtro.DoadorID)
		conds = append(conds, fmt.Sprintf(`dc.doador_id = $%d`, len(args)))
	}
	if filtro.De != "" {
		args = append(args, filtro.De)
		conds = append(conds, fmt.Sprintf(`dc.data_doacao >= $%d`, len(args)))
	}
	if filtro.Ate != "" {
		args = append(args, filtro.Ate)
		conds = append(conds, fmt.Sprintf(`dc.data_doacao <= $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY dc.data_doacao DESC, dc.criado_em DESC`

	return q.listDetalhadas(ctx, query, args)
}

func (q *Queries) listDetalhadas(ctx context.Context, query string, args []any) ([]DoacaoDetalhada, error) {
	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doacoes []DoacaoDetalhada
	for rows.Next() {
		var d DoacaoDetalhada
		if err := rows.Scan(
			&d.ID, &d.DoadorID, &d.DataDoacao, &d.HoraDoacao, &d.Notas, &d.CriadoEm,
			&d.DoadorNome, &d.DoadorNumeroBI, &d.TipoSanguineo,
		); err != nil {
			return nil, err
		}
		doacoes = append(doacoes, d)
	}

	return doacoes, rows.Err()
}

func scanDoacao(row pgx.Row) (Doacao, error) {
	var d Doacao
	err := row.Scan(&d.ID, &d.DoadorID, &d.DataDoacao, &d.HoraDoacao, &d.Notas, &d.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Doacao{}, ErrNotFound
		}
		return Doacao{}, err
	}
	return d, nil
}
