package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/repo"
)

var (
	// ErrLimiteAdmins indica que a província já tem o máximo de admins.
	ErrLimiteAdmins = errors.New("limite de administradores da província atingido")
	// ErrAutoEliminacao impede que a conta autenticada se elimine.
	ErrAutoEliminacao = errors.New("não é possível eliminar a própria conta")
	// ErrPapelInvalido indica papel fora do conjunto aceito.
	ErrPapelInvalido = errors.New("papel inválido")
	// ErrCamposObrigatorios indica cadastro sem os campos mínimos.
	ErrCamposObrigatorios = errors.New("nome, username e email são obrigatórios")
	// ErrEmailEmUso indica email já registado em outra conta.
	ErrEmailEmUso = errors.New("utilizador com este email já existe")
	// ErrContaDuplicada indica email ou username já registado.
	ErrContaDuplicada = errors.New("utilizador já existe com este email ou username")
)

// maxAdminsPorProvincia limita admins por província.
const maxAdminsPorProvincia = 5

type lideresRepository interface {
	ListUtilizadores(ctx context.Context) ([]repo.Utilizador, error)
	GetUtilizador(ctx context.Context, id uuid.UUID) (repo.Utilizador, error)
	GetUtilizadorPorEmail(ctx context.Context, email string) (repo.Utilizador, error)
	GetUtilizadorPorUsername(ctx context.Context, username string) (repo.Utilizador, error)
	CountAdminsPorProvincia(ctx context.Context, provinciaID uuid.UUID) (int, error)
	CreateUtilizador(ctx context.Context, input repo.CriarUtilizadorInput) (repo.Utilizador, error)
	UpdateUtilizador(ctx context.Context, id uuid.UUID, input repo.AtualizarUtilizadorInput) (repo.Utilizador, error)
	DeleteUtilizador(ctx context.Context, id uuid.UUID) error
}

type lideresMailer interface {
	EnviarBoasVindas(ctx context.Context, email, nome string) error
	EnviarSenhaProvisoria(ctx context.Context, email, nome, senha string) error
}

// LideresService gere as contas de líderes e admins (operações de admin).
type LideresService struct {
	repo   lideresRepository
	mailer lideresMailer
}

// NewLideresService cria novo serviço.
func NewLideresService(r lideresRepository, m lideresMailer) *LideresService {
	return &LideresService{repo: r, mailer: m}
}

// Listar devolve todas as contas, mais recentes primeiro.
func (s *LideresService) Listar(ctx context.Context) ([]repo.Utilizador, error) {
	return s.repo.ListUtilizadores(ctx)
}

// CriarLiderInput agrupa os campos do cadastro de conta.
type CriarLiderInput struct {
	Nome        string
	Username    string
	Email       string
	Papel       string
	ProvinciaID uuid.UUID
}

// Criar cadastra a conta com senha provisória gerada e enviada por email.
// Email e username precisam ser inéditos. Falha no envio não desfaz o
// cadastro; o admin pode reenviar depois.
func (s *LideresService) Criar(ctx context.Context, input CriarLiderInput) (repo.Utilizador, error) {
	if strings.TrimSpace(input.Nome) == "" ||
		strings.TrimSpace(input.Username) == "" ||
		strings.TrimSpace(input.Email) == "" {
		return repo.Utilizador{}, ErrCamposObrigatorios
	}
	if !acesso.PapelValido(input.Papel) {
		return repo.Utilizador{}, ErrPapelInvalido
	}

	if _, err := s.repo.GetUtilizadorPorEmail(ctx, input.Email); err == nil {
		return repo.Utilizador{}, ErrEmailEmUso
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Utilizador{}, err
	}
	if _, err := s.repo.GetUtilizadorPorUsername(ctx, input.Username); err == nil {
		return repo.Utilizador{}, ErrContaDuplicada
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Utilizador{}, err
	}

	if input.Papel == string(acesso.PapelAdmin) {
		if err := s.verificarLimiteAdmins(ctx, input.ProvinciaID); err != nil {
			return repo.Utilizador{}, err
		}
	}

	senha, err := auth.GerarSenhaProvisoria()
	if err != nil {
		return repo.Utilizador{}, err
	}
	hash, err := auth.Hash(senha)
	if err != nil {
		return repo.Utilizador{}, err
	}

	user, err := s.repo.CreateUtilizador(ctx, repo.CriarUtilizadorInput{
		Username:    input.Username,
		Email:       input.Email,
		SenhaHash:   hash,
		Nome:        input.Nome,
		Papel:       input.Papel,
		ProvinciaID: input.ProvinciaID,
		Provisoria:  true,
	})
	if err != nil {
		return repo.Utilizador{}, err
	}

	if err := s.mailer.EnviarSenhaProvisoria(ctx, user.Email, user.Nome, senha); err != nil {
		log.Error().Err(err).Str("utilizador", user.Username).Msg("falha ao enviar senha provisória")
	} else if err := s.mailer.EnviarBoasVindas(ctx, user.Email, user.Nome); err != nil {
		log.Warn().Err(err).Str("utilizador", user.Username).Msg("falha ao enviar boas-vindas")
	}

	return user, nil
}

// Atualizar aplica atualização parcial; promoção a admin respeita o limite da
// província de destino.
func (s *LideresService) Atualizar(ctx context.Context, id uuid.UUID, input repo.AtualizarUtilizadorInput) (repo.Utilizador, error) {
	if input.Papel != nil && !acesso.PapelValido(*input.Papel) {
		return repo.Utilizador{}, ErrPapelInvalido
	}

	atual, err := s.repo.GetUtilizador(ctx, id)
	if err != nil {
		return repo.Utilizador{}, err
	}

	if input.Email != nil {
		if outro, err := s.repo.GetUtilizadorPorEmail(ctx, *input.Email); err == nil && outro.ID != id {
			return repo.Utilizador{}, ErrEmailEmUso
		} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.Utilizador{}, err
		}
	}
	if input.Username != nil {
		if outro, err := s.repo.GetUtilizadorPorUsername(ctx, *input.Username); err == nil && outro.ID != id {
			return repo.Utilizador{}, ErrContaDuplicada
		} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.Utilizador{}, err
		}
	}

	papelFinal := atual.Papel
	if input.Papel != nil {
		papelFinal = *input.Papel
	}
	provinciaFinal := atual.ProvinciaID
	if input.ProvinciaID != nil {
		provinciaFinal = *input.ProvinciaID
	}

	viraAdmin := papelFinal == string(acesso.PapelAdmin) &&
		(atual.Papel != string(acesso.PapelAdmin) || provinciaFinal != atual.ProvinciaID)
	if viraAdmin {
		if err := s.verificarLimiteAdmins(ctx, provinciaFinal); err != nil {
			return repo.Utilizador{}, err
		}
	}

	return s.repo.UpdateUtilizador(ctx, id, input)
}

// Eliminar remove a conta; a própria conta autenticada nunca.
func (s *LideresService) Eliminar(ctx context.Context, id, solicitante uuid.UUID) error {
	if id == solicitante {
		return ErrAutoEliminacao
	}
	return s.repo.DeleteUtilizador(ctx, id)
}

// CriarAdminEmergencia cadastra um admin com senha explícita, fora do fluxo
// normal (rota guardada por chave). Respeita o limite por província.
func (s *LideresService) CriarAdminEmergencia(ctx context.Context, nome, username, email, senha string, provinciaID uuid.UUID) (repo.Utilizador, error) {
	if strings.TrimSpace(nome) == "" || strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
		return repo.Utilizador{}, ErrCamposObrigatorios
	}
	if len(senha) < senhaMinima {
		return repo.Utilizador{}, ErrSenhaCurta
	}

	if _, err := s.repo.GetUtilizadorPorEmail(ctx, email); err == nil {
		return repo.Utilizador{}, ErrContaDuplicada
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Utilizador{}, err
	}
	if _, err := s.repo.GetUtilizadorPorUsername(ctx, username); err == nil {
		return repo.Utilizador{}, ErrContaDuplicada
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Utilizador{}, err
	}

	if err := s.verificarLimiteAdmins(ctx, provinciaID); err != nil {
		return repo.Utilizador{}, err
	}

	hash, err := auth.Hash(senha)
	if err != nil {
		return repo.Utilizador{}, err
	}

	return s.repo.CreateUtilizador(ctx, repo.CriarUtilizadorInput{
		Username:    username,
		Email:       email,
		SenhaHash:   hash,
		Nome:        nome,
		Papel:       string(acesso.PapelAdmin),
		ProvinciaID: provinciaID,
		Provisoria:  false,
	})
}

func (s *LideresService) verificarLimiteAdmins(ctx context.Context, provinciaID uuid.UUID) error {
	total, err := s.repo.CountAdminsPorProvincia(ctx, provinciaID)
	if err != nil {
		return err
	}
	if total >= maxAdminsPorProvincia {
		return ErrLimiteAdmins
	}
	return nil
}
