package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/repo"
)

var (
	// ErrTokenInvalido cobre token desconhecido, vencido, já usado ou com
	// email divergente; o chamador não distingue os casos.
	ErrTokenInvalido = errors.New("token inválido ou expirado")
	// ErrEnvioEmail indica falha ao entregar o email de recuperação.
	ErrEnvioEmail = errors.New("não foi possível enviar o email de recuperação")
)

// tokenTTL é a validade do token de recuperação.
const tokenTTL = time.Hour

type recuperacaoRepository interface {
	GetUtilizadorPorEmail(ctx context.Context, email string) (repo.Utilizador, error)
	UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string, provisoria bool) error
	CreateTokenRecuperacao(ctx context.Context, email, tokenHash string, expiraEm time.Time) (repo.TokenRecuperacao, error)
	GetTokenValido(ctx context.Context, tokenHash string) (repo.TokenRecuperacao, error)
	MarcarTokenUsado(ctx context.Context, id uuid.UUID) error
	DeleteTokensPorEmail(ctx context.Context, email string) error
	DeleteTokensExpirados(ctx context.Context) (int, error)
}

type recuperacaoMailer interface {
	EnviarRecuperacao(ctx context.Context, email, nome, token string) error
}

// RecuperacaoService gere o ciclo de vida dos tokens de recuperação de senha.
type RecuperacaoService struct {
	repo   recuperacaoRepository
	mailer recuperacaoMailer
	agora  func() time.Time
}

// NewRecuperacaoService cria novo serviço.
func NewRecuperacaoService(r recuperacaoRepository, m recuperacaoMailer) *RecuperacaoService {
	return &RecuperacaoService{repo: r, mailer: m, agora: time.Now}
}

// Pedir inicia a recuperação. Email desconhecido ou província divergente
// devolve nil sem efeito, para não revelar quais contas existem. Para contas
// reais, apaga tokens antigos da conta (no máximo um token vivo), varre os
// vencidos e envia o novo token em claro por email.
func (s *RecuperacaoService) Pedir(ctx context.Context, email string, provinciaID *uuid.UUID) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUtilizadorPorEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Info().Msg("recuperação pedida para email desconhecido")
			return nil
		}
		return err
	}
	if provinciaID != nil && user.ProvinciaID != *provinciaID {
		log.Info().Msg("recuperação pedida com província divergente")
		return nil
	}

	if err := s.repo.DeleteTokensPorEmail(ctx, user.Email); err != nil {
		return err
	}
	if n, err := s.repo.DeleteTokensExpirados(ctx); err != nil {
		return err
	} else if n > 0 {
		log.Info().Int("removidos", n).Msg("tokens de recuperação vencidos varridos")
	}

	raw, hash, err := auth.GerarTokenRecuperacao()
	if err != nil {
		return err
	}

	if _, err := s.repo.CreateTokenRecuperacao(ctx, user.Email, hash, s.agora().Add(tokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.EnviarRecuperacao(ctx, user.Email, user.Nome, raw); err != nil {
		log.Error().Err(err).Msg("falha ao enviar email de recuperação")
		return ErrEnvioEmail
	}

	return nil
}

// Redefinir consome o token e grava a senha nova. O token só vale uma vez,
// dentro da validade e para o email que o pediu.
func (s *RecuperacaoService) Redefinir(ctx context.Context, email, rawToken, senhaNova string) error {
	if len(senhaNova) < senhaMinima {
		return ErrSenhaCurta
	}

	email = strings.ToLower(strings.TrimSpace(email))

	token, err := s.repo.GetTokenValido(ctx, auth.HashTokenRecuperacao(rawToken))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenInvalido
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(token.Email), []byte(email)) != 1 {
		return ErrTokenInvalido
	}
	if token.UsadoEm != nil || s.agora().After(token.ExpiraEm) {
		return ErrTokenInvalido
	}

	user, err := s.repo.GetUtilizadorPorEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenInvalido
		}
		return err
	}

	if err := s.repo.MarcarTokenUsado(ctx, token.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenInvalido
		}
		return err
	}

	hash, err := auth.Hash(senhaNova)
	if err != nil {
		return err
	}

	return s.repo.UpdateSenha(ctx, user.ID, hash, false)
}

// LimparExpirados remove tokens vencidos (rotina administrativa).
func (s *RecuperacaoService) LimparExpirados(ctx context.Context) (int, error) {
	return s.repo.DeleteTokensExpirados(ctx)
}
