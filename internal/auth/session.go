package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessaoInvalida é retornada quando a sessão não existe ou expirou.
	ErrSessaoInvalida = errors.New("sessão inválida ou expirada")
)

// Sessao guarda o contexto autenticado de uma requisição.
type Sessao struct {
	UtilizadorID uuid.UUID `json:"user_id"`
	ProvinciaID  uuid.UUID `json:"province_id"`
	Papel        string    `json:"role"`
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SessaoManager mantém sessões server-side no Redis, chaveadas por cookie opaco.
type SessaoManager struct {
	redis redisCommander
	ttl   time.Duration
}

// NewSessaoManager cria o gerenciador com TTL configurado.
func NewSessaoManager(client redisCommander, ttl time.Duration) *SessaoManager {
	return &SessaoManager{redis: client, ttl: ttl}
}

// TTL expõe a validade configurada (útil para o cookie).
func (m *SessaoManager) TTL() time.Duration {
	return m.ttl
}

// Criar gera um identificador opaco e persiste a sessão.
func (m *SessaoManager) Criar(ctx context.Context, sessao Sessao) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(sessao)
	if err != nil {
		return "", err
	}

	if err := m.redis.Set(ctx, sessaoKey(id), payload, m.ttl).Err(); err != nil {
		return "", err
	}

	return id, nil
}

// Obter carrega a sessão pelo identificador do cookie.
func (m *SessaoManager) Obter(ctx context.Context, id string) (Sessao, error) {
	if id == "" {
		return Sessao{}, ErrSessaoInvalida
	}

	raw, err := m.redis.Get(ctx, sessaoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Sessao{}, ErrSessaoInvalida
		}
		return Sessao{}, err
	}

	var sessao Sessao
	if err := json.Unmarshal(raw, &sessao); err != nil {
		return Sessao{}, ErrSessaoInvalida
	}

	return sessao, nil
}

// Atualizar regrava o contexto da sessão mantendo o TTL integral.
func (m *SessaoManager) Atualizar(ctx context.Context, id string, sessao Sessao) error {
	payload, err := json.Marshal(sessao)
	if err != nil {
		return err
	}
	return m.redis.Set(ctx, sessaoKey(id), payload, m.ttl).Err()
}

// Destruir remove a sessão (logout).
func (m *SessaoManager) Destruir(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.redis.Del(ctx, sessaoKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func sessaoKey(id string) string {
	return "sessao:" + id
}
