package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/repo"
)

var (
	// ErrNumeroBIEmUso indica cadastro com BI já registado.
	ErrNumeroBIEmUso = errors.New("já existe doador com este número de BI")
	// ErrDoadorInvalido indica cadastro sem os campos mínimos.
	ErrDoadorInvalido = errors.New("número de BI e nome completo são obrigatórios")
	// ErrDataDoacaoObrigatoria indica registro de doação sem data.
	ErrDataDoacaoObrigatoria = errors.New("data da doação é obrigatória")
)

type doadoresRepository interface {
	SearchDoadores(ctx context.Context, escopo acesso.Escopo, filtro repo.FiltroDoadores) ([]repo.Doador, error)
	GetDoador(ctx context.Context, id uuid.UUID) (repo.Doador, error)
	GetDoadorPorNumeroBI(ctx context.Context, numeroBI string) (repo.Doador, error)
	CreateDoador(ctx context.Context, input repo.CriarDoadorInput) (repo.Doador, error)
	UpdateDoador(ctx context.Context, id uuid.UUID, input repo.AtualizarDoadorInput) (repo.Doador, error)
	DeleteDoador(ctx context.Context, id uuid.UUID) error
	ListDoacoesPorDoador(ctx context.Context, doadorID uuid.UUID) ([]repo.Doacao, error)
	CreateDoacao(ctx context.Context, input repo.CriarDoacaoInput) (repo.Doacao, error)
}

// DoadoresService aplica o escopo por papel sobre o cadastro de doadores.
type DoadoresService struct {
	repo doadoresRepository
}

// NewDoadoresService cria novo serviço.
func NewDoadoresService(r doadoresRepository) *DoadoresService {
	return &DoadoresService{repo: r}
}

// Pesquisar lista doadores dentro do escopo do chamador. Líderes veem só os
// que cadastraram; o filtro de província só vale para admins.
func (s *DoadoresService) Pesquisar(ctx context.Context, quem acesso.Identidade, provinciaFiltro *uuid.UUID, filtro repo.FiltroDoadores) ([]repo.Doador, error) {
	escopo, err := quem.EscopoPesquisa(provinciaFiltro)
	if err != nil {
		return nil, err
	}
	return s.repo.SearchDoadores(ctx, escopo, filtro)
}

// Obter busca o doador pelo id; leitura individual não é recortada por
// escopo, apenas mutações.
func (s *DoadoresService) Obter(ctx context.Context, id uuid.UUID) (repo.Doador, error) {
	return s.repo.GetDoador(ctx, id)
}

// Criar cadastra o doador. Província e criador vêm sempre da sessão; o BI
// precisa ser inédito.
func (s *DoadoresService) Criar(ctx context.Context, quem acesso.Identidade, input repo.CriarDoadorInput) (repo.Doador, error) {
	if quem.Vazia() {
		return repo.Doador{}, acesso.ErrSemContexto
	}
	if strings.TrimSpace(input.NumeroBI) == "" || strings.TrimSpace(input.NomeCompleto) == "" {
		return repo.Doador{}, ErrDoadorInvalido
	}

	if _, err := s.repo.GetDoadorPorNumeroBI(ctx, input.NumeroBI); err == nil {
		return repo.Doador{}, ErrNumeroBIEmUso
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Doador{}, err
	}

	input.ProvinciaID = quem.ProvinciaID
	input.CriadoPor = quem.UtilizadorID

	return s.repo.CreateDoador(ctx, input)
}

// Atualizar edita o doador dentro das regras de posse e província.
func (s *DoadoresService) Atualizar(ctx context.Context, quem acesso.Identidade, id uuid.UUID, input repo.AtualizarDoadorInput) (repo.Doador, error) {
	doador, err := s.repo.GetDoador(ctx, id)
	if err != nil {
		return repo.Doador{}, err
	}
	if err := quem.PodeAlterarDoador(doador.CriadoPor, doador.ProvinciaID); err != nil {
		return repo.Doador{}, err
	}

	if input.NumeroBI != nil && strings.TrimSpace(*input.NumeroBI) != doador.NumeroBI {
		if _, err := s.repo.GetDoadorPorNumeroBI(ctx, *input.NumeroBI); err == nil {
			return repo.Doador{}, ErrNumeroBIEmUso
		} else if !errors.Is(err, repo.ErrNotFound) {
			return repo.Doador{}, err
		}
	}

	return s.repo.UpdateDoador(ctx, id, input)
}

// Eliminar remove o doador dentro das regras de posse e província. Doações já
// registadas ficam órfãs.
func (s *DoadoresService) Eliminar(ctx context.Context, quem acesso.Identidade, id uuid.UUID) error {
	doador, err := s.repo.GetDoador(ctx, id)
	if err != nil {
		return err
	}
	if err := quem.PodeAlterarDoador(doador.CriadoPor, doador.ProvinciaID); err != nil {
		return err
	}
	return s.repo.DeleteDoador(ctx, id)
}

// Historico devolve as doações de um doador, mais recentes primeiro.
func (s *DoadoresService) Historico(ctx context.Context, doadorID uuid.UUID) ([]repo.Doacao, error) {
	return s.repo.ListDoacoesPorDoador(ctx, doadorID)
}

// RegistrarDoacao grava a doação. A existência do doador não é conferida;
// o registro vale mesmo que o doador seja removido depois.
func (s *DoadoresService) RegistrarDoacao(ctx context.Context, input repo.CriarDoacaoInput) (repo.Doacao, error) {
	if strings.TrimSpace(input.DataDoacao) == "" {
		return repo.Doacao{}, ErrDataDoacaoObrigatoria
	}
	return s.repo.CreateDoacao(ctx, input)
}
