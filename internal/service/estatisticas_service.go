package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/repo"
)

// TiposSanguineos é a ordem fixa de apresentação nos relatórios.
var TiposSanguineos = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}

type estatisticasRepository interface {
	CountDoadores(ctx context.Context, escopo acesso.Escopo) (int, error)
	CountDoadoresAptos(ctx context.Context, escopo acesso.Escopo) (int, error)
	CountDoadoresDesde(ctx context.Context, escopo acesso.Escopo, desde time.Time) (int, error)
	CountDoadoresPorTipo(ctx context.Context, escopo acesso.Escopo, tipo string) (int, error)
	ListDoadorIDs(ctx context.Context, escopo acesso.Escopo) ([]uuid.UUID, error)
	CountDoacoesPorDoadores(ctx context.Context, doadorIDs []uuid.UUID) (int, error)
	ListDoacoesRecentes(ctx context.Context, provinciaID *uuid.UUID, limite int) ([]repo.DoacaoDetalhada, error)
	ListDoacoesDetalhadas(ctx context.Context, provinciaID *uuid.UUID, filtro repo.FiltroDoacoes) ([]repo.DoacaoDetalhada, error)
}

// EstatisticaTipo é a fatia de um tipo sanguíneo no total de doadores.
type EstatisticaTipo struct {
	Total      int `json:"count"`
	Percentual int `json:"percentage"`
}

// Resumo agrega os números do painel. PorTipo é um mapa chaveado pelo tipo
// sanguíneo, como o painel consome.
type Resumo struct {
	TotalDoadores int                        `json:"totalDonors"`
	TotalDoacoes  int                        `json:"totalDonations"`
	DoadoresAptos int                        `json:"activeDonors"`
	NovosEsteMes  int                        `json:"newThisMonth"`
	PorTipo       map[string]EstatisticaTipo `json:"bloodTypeStats"`
}

// EstatisticasService agrega números de doadores e doações por escopo.
type EstatisticasService struct {
	repo  estatisticasRepository
	agora func() time.Time
}

// NewEstatisticasService cria novo serviço.
func NewEstatisticasService(r estatisticasRepository) *EstatisticasService {
	return &EstatisticasService{repo: r, agora: time.Now}
}

// Resumo calcula os agregados do painel. Líderes veem a própria província;
// admins a província pedida ou todas. A contagem de doações passa pelos ids
// dos doadores do escopo, porque doações não guardam província.
func (s *EstatisticasService) Resumo(ctx context.Context, quem acesso.Identidade, provinciaFiltro *uuid.UUID) (*Resumo, error) {
	escopo, err := quem.EscopoEstatisticas(provinciaFiltro)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountDoadores(ctx, escopo)
	if err != nil {
		return nil, err
	}
	aptos, err := s.repo.CountDoadoresAptos(ctx, escopo)
	if err != nil {
		return nil, err
	}

	agora := s.agora()
	inicioMes := time.Date(agora.Year(), agora.Month(), 1, 0, 0, 0, 0, agora.Location())
	novos, err := s.repo.CountDoadoresDesde(ctx, escopo, inicioMes)
	if err != nil {
		return nil, err
	}

	ids, err := s.repo.ListDoadorIDs(ctx, escopo)
	if err != nil {
		return nil, err
	}
	doacoes, err := s.repo.CountDoacoesPorDoadores(ctx, ids)
	if err != nil {
		return nil, err
	}

	porTipo := make(map[string]EstatisticaTipo, len(TiposSanguineos))
	for _, tipo := range TiposSanguineos {
		n, err := s.repo.CountDoadoresPorTipo(ctx, escopo, tipo)
		if err != nil {
			return nil, err
		}
		porTipo[tipo] = EstatisticaTipo{
			Total:      n,
			Percentual: percentual(n, total),
		}
	}

	return &Resumo{
		TotalDoadores: total,
		TotalDoacoes:  doacoes,
		DoadoresAptos: aptos,
		NovosEsteMes:  novos,
		PorTipo:       porTipo,
	}, nil
}

// DoacoesRecentes lista as últimas doações visíveis ao chamador.
func (s *EstatisticasService) DoacoesRecentes(ctx context.Context, quem acesso.Identidade, limite int) ([]repo.DoacaoDetalhada, error) {
	escopo, err := quem.EscopoDoacoes()
	if err != nil {
		return nil, err
	}
	if limite <= 0 {
		limite = 10
	}
	return s.repo.ListDoacoesRecentes(ctx, escopo.ProvinciaID, limite)
}

// DoacoesDetalhadas lista doações com dados do doador para a exportação.
func (s *EstatisticasService) DoacoesDetalhadas(ctx context.Context, quem acesso.Identidade, filtro repo.FiltroDoacoes) ([]repo.DoacaoDetalhada, error) {
	escopo, err := quem.EscopoDoacoes()
	if err != nil {
		return nil, err
	}
	return s.repo.ListDoacoesDetalhadas(ctx, escopo.ProvinciaID, filtro)
}

func percentual(parte, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(parte) / float64(total) * 100))
}
