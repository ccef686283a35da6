package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/repo"
)

var (
	// ErrCredenciaisInvalidas indica falha na autenticação.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrProvinciaErrada indica líder tentando entrar por outra província.
	ErrProvinciaErrada = errors.New("utilizador não pertence à província selecionada")
	// ErrSenhaCurta indica senha nova abaixo do mínimo.
	ErrSenhaCurta = errors.New("a senha deve ter pelo menos 6 caracteres")
	// ErrSenhaAtualInvalida indica senha atual incorreta na troca.
	ErrSenhaAtualInvalida = errors.New("senha atual incorreta")
)

const senhaMinima = 6

type authRepository interface {
	GetUtilizadorPorUsername(ctx context.Context, username string) (repo.Utilizador, error)
	GetUtilizador(ctx context.Context, id uuid.UUID) (repo.Utilizador, error)
	UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string, provisoria bool) error
}

type sessaoStore interface {
	Criar(ctx context.Context, sessao auth.Sessao) (string, error)
	Destruir(ctx context.Context, id string) error
}

// AuthService concentra autenticação e ciclo de vida da sessão.
type AuthService struct {
	repo    authRepository
	sessoes sessaoStore
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, sessoes sessaoStore) *AuthService {
	return &AuthService{repo: r, sessoes: sessoes}
}

// LoginResult devolve o utilizador autenticado e o id da sessão criada.
type LoginResult struct {
	Utilizador repo.Utilizador
	SessaoID   string
}

// Login autentica por username e senha. Quando o formulário envia uma
// província, ela é conferida para líderes; sem província, o líder entra pela
// sua. Admins entram por qualquer província.
func (s *AuthService) Login(ctx context.Context, username, senha string, provinciaID uuid.UUID) (*LoginResult, error) {
	user, err := s.repo.GetUtilizadorPorUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: utilizador não encontrado")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrCredenciaisInvalidas
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrCredenciaisInvalidas
	}

	if user.Papel == string(acesso.PapelLider) && provinciaID != uuid.Nil && user.ProvinciaID != provinciaID {
		return nil, ErrProvinciaErrada
	}

	sessaoID, err := s.sessoes.Criar(ctx, auth.Sessao{
		UtilizadorID: user.ID,
		ProvinciaID:  user.ProvinciaID,
		Papel:        user.Papel,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Utilizador: user, SessaoID: sessaoID}, nil
}

// Logout destrói a sessão; id vazio é aceito sem erro.
func (s *AuthService) Logout(ctx context.Context, sessaoID string) error {
	return s.sessoes.Destruir(ctx, sessaoID)
}

// GetUtilizador expõe a conta da sessão corrente.
func (s *AuthService) GetUtilizador(ctx context.Context, id uuid.UUID) (repo.Utilizador, error) {
	return s.repo.GetUtilizador(ctx, id)
}

// AlterarSenha troca a senha da conta autenticada, exigindo a atual. A troca
// limpa o estado de senha provisória.
func (s *AuthService) AlterarSenha(ctx context.Context, utilizadorID uuid.UUID, senhaAtual, senhaNova string) error {
	if len(senhaNova) < senhaMinima {
		return ErrSenhaCurta
	}

	user, err := s.repo.GetUtilizador(ctx, utilizadorID)
	if err != nil {
		return err
	}

	ok, err := auth.Verify(senhaAtual, user.SenhaHash)
	if err != nil || !ok {
		return ErrSenhaAtualInvalida
	}

	hash, err := auth.Hash(senhaNova)
	if err != nil {
		return err
	}

	return s.repo.UpdateSenha(ctx, utilizadorID, hash, false)
}
