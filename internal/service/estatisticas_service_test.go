package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/repo"
)

type stubEstatisticasRepo struct {
	porTipo      map[string]int
	total        int
	aptos        int
	novos        int
	ids          []uuid.UUID
	doacoes      int
	ultimoEscopo acesso.Escopo
	recentes     []repo.DoacaoDetalhada
	limiteVisto  int
}

func (s *stubEstatisticasRepo) CountDoadores(_ context.Context, escopo acesso.Escopo) (int, error) {
	s.ultimoEscopo = escopo
	return s.total, nil
}

func (s *stubEstatisticasRepo) CountDoadoresAptos(_ context.Context, _ acesso.Escopo) (int, error) {
	return s.aptos, nil
}

func (s *stubEstatisticasRepo) CountDoadoresDesde(_ context.Context, _ acesso.Escopo, _ time.Time) (int, error) {
	return s.novos, nil
}

func (s *stubEstatisticasRepo) CountDoadoresPorTipo(_ context.Context, _ acesso.Escopo, tipo string) (int, error) {
	return s.porTipo[tipo], nil
}

func (s *stubEstatisticasRepo) ListDoadorIDs(_ context.Context, _ acesso.Escopo) ([]uuid.UUID, error) {
	return s.ids, nil
}

func (s *stubEstatisticasRepo) CountDoacoesPorDoadores(_ context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.doacoes, nil
}

func (s *stubEstatisticasRepo) ListDoacoesRecentes(_ context.Context, provinciaID *uuid.UUID, limite int) ([]repo.DoacaoDetalhada, error) {
	s.limiteVisto = limite
	if provinciaID != nil {
		s.ultimoEscopo = acesso.Escopo{ProvinciaID: provinciaID}
	}
	return s.recentes, nil
}

func (s *stubEstatisticasRepo) ListDoacoesDetalhadas(_ context.Context, provinciaID *uuid.UUID, _ repo.FiltroDoacoes) ([]repo.DoacaoDetalhada, error) {
	if provinciaID != nil {
		s.ultimoEscopo = acesso.Escopo{ProvinciaID: provinciaID}
	}
	return s.recentes, nil
}

func TestResumoPercentuais(t *testing.T) {
	stub := &stubEstatisticasRepo{
		total:   3,
		aptos:   2,
		novos:   1,
		ids:     []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		doacoes: 7,
		porTipo: map[string]int{"O+": 2, "A-": 1},
	}
	svc := NewEstatisticasService(stub)

	admin := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}
	resumo, err := svc.Resumo(context.Background(), admin, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, resumo.TotalDoadores)
	assert.Equal(t, 7, resumo.TotalDoacoes)
	assert.Equal(t, 2, resumo.DoadoresAptos)
	assert.Equal(t, 1, resumo.NovosEsteMes)
	require.Len(t, resumo.PorTipo, 8)

	assert.Equal(t, 67, resumo.PorTipo["O+"].Percentual)
	assert.Equal(t, 33, resumo.PorTipo["A-"].Percentual)
	assert.Equal(t, 0, resumo.PorTipo["AB+"].Percentual)
}

func TestResumoSerializaPorTipoComoMapa(t *testing.T) {
	stub := &stubEstatisticasRepo{
		total:   2,
		ids:     []uuid.UUID{uuid.New()},
		porTipo: map[string]int{"O+": 2},
	}
	svc := NewEstatisticasService(stub)

	admin := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}
	resumo, err := svc.Resumo(context.Background(), admin, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(resumo)
	require.NoError(t, err)

	var corpo struct {
		PorTipo map[string]struct {
			Count      int `json:"count"`
			Percentage int `json:"percentage"`
		} `json:"bloodTypeStats"`
	}
	require.NoError(t, json.Unmarshal(raw, &corpo))
	require.Contains(t, corpo.PorTipo, "O+", "o painel lê as chaves por tipo sanguíneo")
	assert.Equal(t, 2, corpo.PorTipo["O+"].Count)
	assert.Equal(t, 100, corpo.PorTipo["O+"].Percentage)
}

func TestResumoSemDoadores(t *testing.T) {
	stub := &stubEstatisticasRepo{}
	svc := NewEstatisticasService(stub)

	admin := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}
	resumo, err := svc.Resumo(context.Background(), admin, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, resumo.TotalDoadores)
	assert.Equal(t, 0, resumo.TotalDoacoes)
	for tipo, e := range resumo.PorTipo {
		assert.Equal(t, 0, e.Percentual, "tipo %s", tipo)
	}
}

func TestResumoSemContextoFalha(t *testing.T) {
	svc := NewEstatisticasService(&stubEstatisticasRepo{})

	_, err := svc.Resumo(context.Background(), acesso.Identidade{}, nil)
	require.ErrorIs(t, err, acesso.ErrSemContexto)
}

func TestResumoLiderRecortaProvincia(t *testing.T) {
	stub := &stubEstatisticasRepo{}
	svc := NewEstatisticasService(stub)

	prov := uuid.New()
	lider := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelLider, ProvinciaID: prov}
	outra := uuid.New()

	_, err := svc.Resumo(context.Background(), lider, &outra)
	require.NoError(t, err)

	require.NotNil(t, stub.ultimoEscopo.ProvinciaID)
	assert.Equal(t, prov, *stub.ultimoEscopo.ProvinciaID, "líder ignora o filtro de província")
}

func TestDoacoesRecentesLimitePadrao(t *testing.T) {
	stub := &stubEstatisticasRepo{}
	svc := NewEstatisticasService(stub)

	admin := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}
	_, err := svc.DoacoesRecentes(context.Background(), admin, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, stub.limiteVisto)
}
