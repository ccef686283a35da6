package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/repo"
)

type stubRecuperacaoRepo struct {
	utilizadores map[string]repo.Utilizador
	tokens       map[string]repo.TokenRecuperacao
	senhas       map[uuid.UUID]string
	apagadosPara []string
}

func newStubRecuperacaoRepo() *stubRecuperacaoRepo {
	return &stubRecuperacaoRepo{
		utilizadores: make(map[string]repo.Utilizador),
		tokens:       make(map[string]repo.TokenRecuperacao),
		senhas:       make(map[uuid.UUID]string),
	}
}

func (s *stubRecuperacaoRepo) GetUtilizadorPorEmail(_ context.Context, email string) (repo.Utilizador, error) {
	u, ok := s.utilizadores[email]
	if !ok {
		return repo.Utilizador{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubRecuperacaoRepo) UpdateSenha(_ context.Context, id uuid.UUID, hash string, _ bool) error {
	s.senhas[id] = hash
	return nil
}

func (s *stubRecuperacaoRepo) CreateTokenRecuperacao(_ context.Context, email, tokenHash string, expiraEm time.Time) (repo.TokenRecuperacao, error) {
	t := repo.TokenRecuperacao{ID: uuid.New(), Email: email, TokenHash: tokenHash, ExpiraEm: expiraEm, CriadoEm: time.Now()}
	s.tokens[tokenHash] = t
	return t, nil
}

func (s *stubRecuperacaoRepo) GetTokenValido(_ context.Context, tokenHash string) (repo.TokenRecuperacao, error) {
	t, ok := s.tokens[tokenHash]
	if !ok || t.UsadoEm != nil || time.Now().After(t.ExpiraEm) {
		return repo.TokenRecuperacao{}, repo.ErrNotFound
	}
	return t, nil
}

func (s *stubRecuperacaoRepo) MarcarTokenUsado(_ context.Context, id uuid.UUID) error {
	for hash, t := range s.tokens {
		if t.ID == id && t.UsadoEm == nil {
			agora := time.Now()
			t.UsadoEm = &agora
			s.tokens[hash] = t
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *stubRecuperacaoRepo) DeleteTokensPorEmail(_ context.Context, email string) error {
	s.apagadosPara = append(s.apagadosPara, email)
	for hash, t := range s.tokens {
		if t.Email == email {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *stubRecuperacaoRepo) DeleteTokensExpirados(_ context.Context) (int, error) {
	n := 0
	for hash, t := range s.tokens {
		if time.Now().After(t.ExpiraEm) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

type stubRecuperacaoMailer struct {
	tokens []string
	falhar bool
}

func (m *stubRecuperacaoMailer) EnviarRecuperacao(_ context.Context, _, _, token string) error {
	if m.falhar {
		return assert.AnError
	}
	m.tokens = append(m.tokens, token)
	return nil
}

func TestPedirEmailDesconhecidoSilencioso(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)

	err := svc.Pedir(context.Background(), "ninguem@exemplo.ao", nil)
	require.NoError(t, err)
	assert.Empty(t, mailerStub.tokens, "nenhum email enviado")
	assert.Empty(t, repoStub.tokens, "nenhum token gravado")
}

func TestPedirProvinciaDivergenteSilencioso(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria", ProvinciaID: uuid.New(),
	}
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)

	outra := uuid.New()
	err := svc.Pedir(context.Background(), "maria@exemplo.ao", &outra)
	require.NoError(t, err)
	assert.Empty(t, repoStub.tokens)
}

func TestPedirSubstituiTokenAnterior(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria", ProvinciaID: uuid.New(),
	}
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)

	require.NoError(t, svc.Pedir(context.Background(), "maria@exemplo.ao", nil))
	require.NoError(t, svc.Pedir(context.Background(), "maria@exemplo.ao", nil))

	assert.Len(t, repoStub.tokens, 1, "no máximo um token vivo por email")
	assert.Len(t, mailerStub.tokens, 2)
}

func TestPedirFalhaDeEnvio(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria",
	}
	svc := NewRecuperacaoService(repoStub, &stubRecuperacaoMailer{falhar: true})

	err := svc.Pedir(context.Background(), "maria@exemplo.ao", nil)
	require.ErrorIs(t, err, ErrEnvioEmail)
}

func TestRedefinirConsomeTokenUmaVez(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	userID := uuid.New()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: userID, Email: "maria@exemplo.ao", Nome: "Maria",
	}
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)

	require.NoError(t, svc.Pedir(context.Background(), "maria@exemplo.ao", nil))
	require.Len(t, mailerStub.tokens, 1)
	raw := mailerStub.tokens[0]

	require.NoError(t, svc.Redefinir(context.Background(), "maria@exemplo.ao", raw, "novasenha"))
	assert.NotEmpty(t, repoStub.senhas[userID])

	err := svc.Redefinir(context.Background(), "maria@exemplo.ao", raw, "outrasenha")
	require.ErrorIs(t, err, ErrTokenInvalido, "token não vale duas vezes")
}

func TestRedefinirEmailDivergente(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria",
	}
	repoStub.utilizadores["outra@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "outra@exemplo.ao", Nome: "Outra",
	}
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)

	require.NoError(t, svc.Pedir(context.Background(), "maria@exemplo.ao", nil))
	raw := mailerStub.tokens[0]

	err := svc.Redefinir(context.Background(), "outra@exemplo.ao", raw, "novasenha")
	require.ErrorIs(t, err, ErrTokenInvalido)
}

func TestRedefinirTokenExpirado(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria",
	}
	mailerStub := &stubRecuperacaoMailer{}
	svc := NewRecuperacaoService(repoStub, mailerStub)
	svc.agora = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	require.NoError(t, svc.Pedir(context.Background(), "maria@exemplo.ao", nil))
	raw := mailerStub.tokens[0]

	svc.agora = time.Now
	err := svc.Redefinir(context.Background(), "maria@exemplo.ao", raw, "novasenha")
	require.ErrorIs(t, err, ErrTokenInvalido)
}

func TestRedefinirSenhaCurta(t *testing.T) {
	svc := NewRecuperacaoService(newStubRecuperacaoRepo(), &stubRecuperacaoMailer{})

	err := svc.Redefinir(context.Background(), "maria@exemplo.ao", "abc", "12345")
	require.ErrorIs(t, err, ErrSenhaCurta)
}

func TestRedefinirTokenDesconhecido(t *testing.T) {
	repoStub := newStubRecuperacaoRepo()
	repoStub.utilizadores["maria@exemplo.ao"] = repo.Utilizador{
		ID: uuid.New(), Email: "maria@exemplo.ao", Nome: "Maria",
	}
	svc := NewRecuperacaoService(repoStub, &stubRecuperacaoMailer{})

	raw, _, err := auth.GerarTokenRecuperacao()
	require.NoError(t, err)

	err = svc.Redefinir(context.Background(), "maria@exemplo.ao", raw, "novasenha")
	require.ErrorIs(t, err, ErrTokenInvalido)
}
