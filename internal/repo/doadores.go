package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cvangola/doadores/internal/acesso"
)

const doadorCols = `id, numero_bi, nome_completo, data_nascimento, idade, genero, municipio, bairro,
        contacto, cargo, departamento, tipo_sanguineo, fator_rh, tem_historico, doacoes_anteriores,
        ultima_doacao, restricoes_medicas, apto_para_doar, disponivel_futuro, contacto_preferido,
        observacoes, provincia_id, criado_por, criado_em, atualizado_em`

// FiltroDoadores reúne os filtros aceitos pela pesquisa. O escopo por papel
// é aplicado à parte e sempre prevalece sobre o que o cliente enviar.
type FiltroDoadores struct {
	Texto            string
	TipoSanguineo    string
	Genero           string
	Municipio        string
	Departamento     string
	IdadeMin         *int
	IdadeMax         *int
	Apto             *bool
	DisponivelFuturo *bool
	TemHistorico     *bool
	CriadoDe         string
	CriadoAte        string
	UltimaDoacaoDe   string
	UltimaDoacaoAte  string
	OrdenarPor       string
	Ordem            string
}

// CriarDoadorInput agrupa os campos do cadastro; provincia e criador vêm da
// sessão, nunca do cliente.
type CriarDoadorInput struct {
	NumeroBI          string
	NomeCompleto      string
	DataNascimento    string
	Idade             int
	Genero            string
	Municipio         string
	Bairro            string
	Contacto          string
	Cargo             string
	Departamento      string
	TipoSanguineo     string
	FatorRH           string
	TemHistorico      bool
	DoacoesAnteriores int
	UltimaDoacao      string
	RestricoesMedicas string
	AptoParaDoar      bool
	DisponivelFuturo  bool
	ContactoPreferido string
	Observacoes       string
	ProvinciaID       uuid.UUID
	CriadoPor         uuid.UUID
}

// AtualizarDoadorInput aplica atualização parcial; campos nulos não mudam.
type AtualizarDoadorInput struct {
	NumeroBI          *string
	NomeCompleto      *string
	DataNascimento    *string
	Idade             *int
	Genero            *string
	Municipio         *string
	Bairro            *string
	Contacto          *string
	Cargo             *string
	Departamento      *string
	TipoSanguineo     *string
	FatorRH           *string
	TemHistorico      *bool
	DoacoesAnteriores *int
	UltimaDoacao      *string
	RestricoesMedicas *string
	AptoParaDoar      *bool
	DisponivelFuturo  *bool
	ContactoPreferido *string
	Observacoes       *string
}

// GetDoador busca doador pelo identificador.
func (q *Queries) GetDoador(ctx context.Context, id uuid.UUID) (Doador, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+doadorCols+` FROM doadores WHERE id = $1`, id)
	return scanDoador(row)
}

// GetDoadorPorNumeroBI busca doador pelo número do BI.
func (q *Queries) GetDoadorPorNumeroBI(ctx context.Context, numeroBI string) (Doador, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT `+doadorCols+` FROM doadores WHERE numero_bi = $1`,
		strings.TrimSpace(numeroBI),
	)
	return scanDoador(row)
}

// CreateDoador insere novo doador e devolve o registro persistido.
func (q *Queries) CreateDoador(ctx context.Context, input CriarDoadorInput) (Doador, error) {
	const query = `
        INSERT INTO doadores (id, numero_bi, nome_completo, data_nascimento, idade, genero, municipio,
            bairro, contacto, cargo, departamento, tipo_sanguineo, fator_rh, tem_historico,
            doacoes_anteriores, ultima_doacao, restricoes_medicas, apto_para_doar, disponivel_futuro,
            contacto_preferido, observacoes, provincia_id, criado_por)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
            $20, $21, $22, $23)
        RETURNING ` + doadorCols

	row := q.pool.QueryRow(ctx, query,
		uuid.New(),
		strings.TrimSpace(input.NumeroBI),
		strings.TrimSpace(input.NomeCompleto),
		input.DataNascimento,
		input.Idade,
		input.Genero,
		input.Municipio,
		input.Bairro,
		input.Contacto,
		input.Cargo,
		input.Departamento,
		input.TipoSanguineo,
		input.FatorRH,
		input.TemHistorico,
		input.DoacoesAnteriores,
		input.UltimaDoacao,
		input.RestricoesMedicas,
		input.AptoParaDoar,
		input.DisponivelFuturo,
		input.ContactoPreferido,
		input.Observacoes,
		input.ProvinciaID,
		input.CriadoPor,
	)
	return scanDoador(row)
}

// UpdateDoador aplica atualização parcial e carimba atualizado_em.
func (q *Queries) UpdateDoador(ctx context.Context, id uuid.UUID, input AtualizarDoadorInput) (Doador, error) {
	const query = `
        UPDATE doadores
        SET numero_bi = COALESCE($2, numero_bi),
            nome_completo = COALESCE($3, nome_completo),
            data_nascimento = COALESCE($4, data_nascimento),
            idade = COALESCE($5, idade),
            genero = COALESCE($6, genero),
            municipio = COALESCE($7, municipio),
            bairro = COALESCE($8, bairro),
            contacto = COALESCE($9, contacto),
            cargo = COALESCE($10, cargo),
            departamento = COALESCE($11, departamento),
            tipo_sanguineo = COALESCE($12, tipo_sanguineo),
            fator_rh = COALESCE($13, fator_rh),
            tem_historico = COALESCE($14, tem_historico),
            doacoes_anteriores = COALESCE($15, doacoes_anteriores),
            ultima_doacao = COALESCE($16, ultima_doacao),
            restricoes_medicas = COALESCE($17, restricoes_medicas),
            apto_para_doar = COALESCE($18, apto_para_doar),
            disponivel_futuro = COALESCE($19, disponivel_futuro),
            contacto_preferido = COALESCE($20, contacto_preferido),
            observacoes = COALESCE($21, observacoes),
            atualizado_em = now()
        WHERE id = $1
        RETURNING ` + doadorCols

	row := q.pool.QueryRow(ctx, query, id,
		input.NumeroBI, input.NomeCompleto, input.DataNascimento, input.Idade, input.Genero,
		input.Municipio, input.Bairro, input.Contacto, input.Cargo, input.Departamento,
		input.TipoSanguineo, input.FatorRH, input.TemHistorico, input.DoacoesAnteriores,
		input.UltimaDoacao, input.RestricoesMedicas, input.AptoParaDoar, input.DisponivelFuturo,
		input.ContactoPreferido, input.Observacoes,
	)
	return scanDoador(row)
}

// DeleteDoador remove o doador. Doações existentes permanecem órfãs, como no
// produto original.
func (q *Queries) DeleteDoador(ctx context.Context, id uuid.UUID) error {
	tag, err := q.pool.Exec(ctx, `DELETE FROM doadores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchDoadores combina o escopo do papel com os filtros do cliente.
func (q *Queries) SearchDoadores(ctx context.Context, escopo acesso.Escopo, filtro FiltroDoadores) ([]Doador, error) {
	conds, args := escopoConds(escopo, nil)

	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
		}
		conds = append(conds, cond)
	}

	if texto := strings.TrimSpace(filtro.Texto); texto != "" {
		padrao := "%" + texto + "%"
		args = append(args, padrao)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(nome_completo ILIKE $%d OR numero_bi ILIKE $%d OR contacto ILIKE $%d OR cargo ILIKE $%d)`,
			n, n, n, n,
		))
	}
	if filtro.TipoSanguineo != "" {
		add(fmt.Sprintf(`tipo_sanguineo = $%d`, len(args)+1), filtro.TipoSanguineo)
	}
	if filtro.Genero != "" {
		add(fmt.Sprintf(`genero = $%d`, len(args)+1), filtro.Genero)
	}
	if filtro.Municipio != "" {
		add(fmt.Sprintf(`municipio ILIKE $%d`, len(args)+1), "%"+filtro.Municipio+"%")
	}
	if filtro.Departamento != "" {
		add(fmt.Sprintf(`departamento = $%d`, len(args)+1), filtro.Departamento)
	}
	if filtro.IdadeMin != nil {
		add(fmt.Sprintf(`idade >= $%d`, len(args)+1), *filtro.IdadeMin)
	}
	if filtro.IdadeMax != nil {
		add(fmt.Sprintf(`idade <= $%d`, len(args)+1), *filtro.IdadeMax)
	}
	if filtro.Apto != nil {
		add(fmt.Sprintf(`apto_para_doar = $%d`, len(args)+1), *filtro.Apto)
	}
	if filtro.DisponivelFuturo != nil {
		add(fmt.Sprintf(`disponivel_futuro = $%d`, len(args)+1), *filtro.DisponivelFuturo)
	}
	if filtro.TemHistorico != nil {
		add(fmt.Sprintf(`tem_historico = $%d`, len(args)+1), *filtro.TemHistorico)
	}
	if filtro.CriadoDe != "" {
		if de, err := time.ParseInLocation("2006-01-02", filtro.CriadoDe, time.Local); err == nil {
			add(fmt.Sprintf(`criado_em >= $%d`, len(args)+1), de)
		}
	}
	if filtro.CriadoAte != "" {
		// limite inclusivo até o fim do dia
		if ate, err := time.ParseInLocation("2006-01-02", filtro.CriadoAte, time.Local); err == nil {
			add(fmt.Sprintf(`criado_em < $%d`, len(args)+1), ate.AddDate(0, 0, 1))
		}
	}
	if filtro.UltimaDoacaoDe != "" {
		add(fmt.Sprintf(`ultima_doacao >= $%d`, len(args)+1), filtro.UltimaDoacaoDe)
	}
	if filtro.UltimaDoacaoAte != "" {
		add(fmt.Sprintf(`ultima_doacao <= $%d`, len(args)+1), filtro.UltimaDoacaoAte)
	}

	query := `SELECT ` + doadorCols + ` FROM doadores`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + ordenacaoDoadores(filtro.OrdenarPor, filtro.Ordem)

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doadores []Doador
	for rows.Next() {
		d, err := scanDoador(rows)
		if err != nil {
			return nil, err
		}
		doadores = append(doadores, d)
	}

	return doadores, rows.Err()
}

// CountDoadores conta doadores dentro do escopo.
func (q *Queries) CountDoadores(ctx context.Context, escopo acesso.Escopo) (int, error) {
	return q.countDoadoresWhere(ctx, escopo, "", nil)
}

// CountDoadoresAptos conta doadores com apto_para_doar dentro do escopo.
func (q *Queries) CountDoadoresAptos(ctx context.Context, escopo acesso.Escopo) (int, error) {
	return q.countDoadoresWhere(ctx, escopo, `apto_para_doar = TRUE`, nil)
}

// CountDoadoresDesde conta doadores criados a partir do instante dado.
func (q *Queries) CountDoadoresDesde(ctx context.Context, escopo acesso.Escopo, desde time.Time) (int, error) {
	return q.countDoadoresWhere(ctx, escopo, `criado_em >= $ARG`, desde)
}

// CountDoadoresPorTipo conta doadores de um tipo sanguíneo no escopo.
func (q *Queries) CountDoadoresPorTipo(ctx context.Context, escopo acesso.Escopo, tipo string) (int, error) {
	return q.countDoadoresWhere(ctx, escopo, `tipo_sanguineo = $ARG`, tipo)
}

// ListDoadorIDs devolve os ids dos doadores do escopo (passo intermediário
// para contar doações, já que doações não guardam província).
func (q *Queries) ListDoadorIDs(ctx context.Context, escopo acesso.Escopo) ([]uuid.UUID, error) {
	conds, args := escopoConds(escopo, nil)

	query := `SELECT id FROM doadores`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (q *Queries) countDoadoresWhere(ctx context.Context, escopo acesso.Escopo, extra string, extraArg any) (int, error) {
	conds, args := escopoConds(escopo, nil)
	if extra != "" {
		if extraArg != nil {
			args = append(args, extraArg)
			extra = strings.Replace(extra, "$ARG", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, extra)
	}

	query := `SELECT COUNT(*) FROM doadores`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}

	var total int
	err := q.pool.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func escopoConds(escopo acesso.Escopo, args []any) ([]string, []any) {
	var conds []string
	if escopo.CriadoPor != nil {
		args = append(args, *escopo.CriadoPor)
		conds = append(conds, fmt.Sprintf(`criado_por = $%d`, len(args)))
	}
	if escopo.ProvinciaID != nil {
		args = append(args, *escopo.ProvinciaID)
		conds = append(conds, fmt.Sprintf(`provincia_id = $%d`, len(args)))
	}
	return conds, args
}

func ordenacaoDoadores(ordenarPor, ordem string) string {
	coluna := "criado_em"
	switch ordenarPor {
	case "name":
		coluna = "nome_completo"
	case "age":
		coluna = "idade"
	case "bloodType":
		coluna = "tipo_sanguineo"
	case "createdAt":
		coluna = "criado_em"
	case "lastDonation":
		coluna = "ultima_doacao"
	case "":
		return "criado_em DESC"
	}

	direcao := "DESC"
	if ordem == "asc" {
		direcao = "ASC"
	}
	return coluna + " " + direcao
}

func scanDoador(row pgx.Row) (Doador, error) {
	var d Doador
	err := row.Scan(
		&d.ID, &d.NumeroBI, &d.NomeCompleto, &d.DataNascimento, &d.Idade, &d.Genero, &d.Municipio,
		&d.Bairro, &d.Contacto, &d.Cargo, &d.Departamento, &d.TipoSanguineo, &d.FatorRH,
		&d.TemHistorico, &d.DoacoesAnteriores, &d.UltimaDoacao, &d.RestricoesMedicas,
		&d.AptoParaDoar, &d.DisponivelFuturo, &d.ContactoPreferido, &d.Observacoes,
		&d.ProvinciaID, &d.CriadoPor, &d.CriadoEm, &d.AtualizadoEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Doador{}, ErrNotFound
		}
		return Doador{}, err
	}
	return d, nil
}
