package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvangola/doadores/internal/acesso"
	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/config"
	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/repo"
	"github.com/cvangola/doadores/internal/service"
)

type fakeRedis struct {
	m map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{m: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.m[key] = v
	case string:
		f.m[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.m[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.m[key]; ok {
			delete(f.m, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type stubContas struct {
	porUsername map[string]repo.Utilizador
	porID       map[uuid.UUID]repo.Utilizador
}

func newStubContas() *stubContas {
	return &stubContas{
		porUsername: make(map[string]repo.Utilizador),
		porID:       make(map[uuid.UUID]repo.Utilizador),
	}
}

func (s *stubContas) adicionar(t *testing.T, username, senha, papel string, provinciaID uuid.UUID) repo.Utilizador {
	t.Helper()
	hash, err := auth.Hash(senha)
	require.NoError(t, err)
	u := repo.Utilizador{
		ID:          uuid.New(),
		Username:    username,
		SenhaHash:   hash,
		Nome:        username,
		Papel:       papel,
		ProvinciaID: provinciaID,
	}
	s.porUsername[username] = u
	s.porID[u.ID] = u
	return u
}

func (s *stubContas) GetUtilizadorPorUsername(_ context.Context, username string) (repo.Utilizador, error) {
	u, ok := s.porUsername[username]
	if !ok {
		return repo.Utilizador{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubContas) GetUtilizador(_ context.Context, id uuid.UUID) (repo.Utilizador, error) {
	u, ok := s.porID[id]
	if !ok {
		return repo.Utilizador{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubContas) UpdateSenha(_ context.Context, _ uuid.UUID, _ string, _ bool) error {
	return nil
}

type stubDoadores struct {
	doadores     map[uuid.UUID]repo.Doador
	ultimoFiltro repo.FiltroDoadores
}

func newStubDoadores() *stubDoadores {
	return &stubDoadores{doadores: make(map[uuid.UUID]repo.Doador)}
}

func (s *stubDoadores) SearchDoadores(_ context.Context, escopo acesso.Escopo, filtro repo.FiltroDoadores) ([]repo.Doador, error) {
	s.ultimoFiltro = filtro
	var out []repo.Doador
	for _, d := range s.doadores {
		if escopo.CriadoPor != nil && d.CriadoPor != *escopo.CriadoPor {
			continue
		}
		if escopo.ProvinciaID != nil && d.ProvinciaID != *escopo.ProvinciaID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDoadores) GetDoador(_ context.Context, id uuid.UUID) (repo.Doador, error) {
	d, ok := s.doadores[id]
	if !ok {
		return repo.Doador{}, repo.ErrNotFound
	}
	return d, nil
}

func (s *stubDoadores) GetDoadorPorNumeroBI(_ context.Context, numeroBI string) (repo.Doador, error) {
	for _, d := range s.doadores {
		if d.NumeroBI == numeroBI {
			return d, nil
		}
	}
	return repo.Doador{}, repo.ErrNotFound
}

func (s *stubDoadores) CreateDoador(_ context.Context, input repo.CriarDoadorInput) (repo.Doador, error) {
	d := repo.Doador{
		ID:           uuid.New(),
		NumeroBI:     input.NumeroBI,
		NomeCompleto: input.NomeCompleto,
		ProvinciaID:  input.ProvinciaID,
		CriadoPor:    input.CriadoPor,
	}
	s.doadores[d.ID] = d
	return d, nil
}

func (s *stubDoadores) UpdateDoador(_ context.Context, id uuid.UUID, _ repo.AtualizarDoadorInput) (repo.Doador, error) {
	d, ok := s.doadores[id]
	if !ok {
		return repo.Doador{}, repo.ErrNotFound
	}
	return d, nil
}

func (s *stubDoadores) DeleteDoador(_ context.Context, id uuid.UUID) error {
	delete(s.doadores, id)
	return nil
}

func (s *stubDoadores) ListDoacoesPorDoador(_ context.Context, _ uuid.UUID) ([]repo.Doacao, error) {
	return nil, nil
}

func (s *stubDoadores) CreateDoacao(_ context.Context, input repo.CriarDoacaoInput) (repo.Doacao, error) {
	return repo.Doacao{ID: uuid.New(), DoadorID: input.DoadorID, DataDoacao: input.DataDoacao}, nil
}

func newTestHandler(contas *stubContas, doadores *stubDoadores) *Handler {
	sessoes := auth.NewSessaoManager(newFakeRedis(), time.Hour)
	return &Handler{
		cfg:         &config.Config{Ambiente: "development"},
		sessoes:     sessoes,
		authService: service.NewAuthService(contas, sessoes),
		doadores:    service.NewDoadoresService(doadores),
		devCookies:  true,
	}
}

func comIdentidade(r *http.Request, identidade acesso.Identidade) *http.Request {
	ctx := context.WithValue(r.Context(), httpmiddleware.ContextKeyIdentidade, identidade)
	return r.WithContext(ctx)
}

func TestLoginEmiteCookieDeSessao(t *testing.T) {
	contas := newStubContas()
	prov := uuid.New()
	contas.adicionar(t, "joao", "segredo1", "leader", prov)
	h := newTestHandler(contas, newStubDoadores())

	body, _ := json.Marshal(map[string]string{
		"username":   "joao",
		"password":   "segredo1",
		"provinceId": prov.String(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpmiddleware.CookieSessao {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "cookie de sessão emitido")
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	var envelope struct {
		Data repo.Utilizador `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "joao", envelope.Data.Username)
}

func TestLoginLiderProvinciaErrada(t *testing.T) {
	contas := newStubContas()
	contas.adicionar(t, "joao", "segredo1", "leader", uuid.New())
	h := newTestHandler(contas, newStubDoadores())

	body, _ := json.Marshal(map[string]string{
		"username":   "joao",
		"password":   "segredo1",
		"provinceId": uuid.New().String(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginCredenciaisInvalidas(t *testing.T) {
	h := newTestHandler(newStubContas(), newStubDoadores())

	body, _ := json.Marshal(map[string]string{"username": "x", "password": "y"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPesquisarDoadoresLiderVeSoOsSeus(t *testing.T) {
	doadores := newStubDoadores()
	lider := uuid.New()
	prov := uuid.New()
	doadores.doadores[uuid.New()] = repo.Doador{ID: uuid.New(), NumeroBI: "A1", CriadoPor: lider, ProvinciaID: prov}
	doadores.doadores[uuid.New()] = repo.Doador{ID: uuid.New(), NumeroBI: "B2", CriadoPor: uuid.New(), ProvinciaID: prov}

	h := newTestHandler(newStubContas(), doadores)

	req := httptest.NewRequest(http.MethodGet, "/api/donors", nil)
	req = comIdentidade(req, acesso.Identidade{UtilizadorID: lider, Papel: acesso.PapelLider, ProvinciaID: prov})
	rec := httptest.NewRecorder()

	h.PesquisarDoadores(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []repo.Doador `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "A1", envelope.Data[0].NumeroBI)
}

func TestPesquisarDoadoresFiltroAllEDatasDeCadastro(t *testing.T) {
	doadores := newStubDoadores()
	h := newTestHandler(newStubContas(), doadores)
	identidade := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}

	// "all" é o valor do painel para "sem filtro de tipo"
	url := "/api/donors?bloodType=all&createdDateFrom=2025-01-01&createdDateTo=2025-06-30"
	req := comIdentidade(httptest.NewRequest(http.MethodGet, url, nil), identidade)
	rec := httptest.NewRecorder()

	h.PesquisarDoadores(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, doadores.ultimoFiltro.TipoSanguineo, "bloodType=all não filtra por tipo")
	assert.Equal(t, "2025-01-01", doadores.ultimoFiltro.CriadoDe)
	assert.Equal(t, "2025-06-30", doadores.ultimoFiltro.CriadoAte)
}

func TestExportarDoadoresFiltroAll(t *testing.T) {
	doadores := newStubDoadores()
	h := newTestHandler(newStubContas(), doadores)
	identidade := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelAdmin, ProvinciaID: uuid.New()}

	req := comIdentidade(httptest.NewRequest(http.MethodGet, "/api/export/donors?bloodType=all", nil), identidade)
	rec := httptest.NewRecorder()

	h.ExportarDoadores(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, doadores.ultimoFiltro.TipoSanguineo)
}

func TestPesquisarDoadoresSemIdentidade(t *testing.T) {
	h := newTestHandler(newStubContas(), newStubDoadores())

	req := httptest.NewRequest(http.MethodGet, "/api/donors", nil)
	rec := httptest.NewRecorder()

	h.PesquisarDoadores(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, "sem contexto nunca devolve dados globais")
}

func TestCriarDoadorConflitoDeBI(t *testing.T) {
	doadores := newStubDoadores()
	h := newTestHandler(newStubContas(), doadores)
	identidade := acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelLider, ProvinciaID: uuid.New()}

	body, _ := json.Marshal(map[string]any{"biNumber": "004567890LA042", "fullName": "Maria José"})

	req := comIdentidade(httptest.NewRequest(http.MethodPost, "/api/donors", bytes.NewReader(body)), identidade)
	rec := httptest.NewRecorder()
	h.CriarDoador(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = comIdentidade(httptest.NewRequest(http.MethodPost, "/api/donors", bytes.NewReader(body)), identidade)
	rec = httptest.NewRecorder()
	h.CriarDoador(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BI")
}

func TestExportarDoadoresCSV(t *testing.T) {
	doadores := newStubDoadores()
	lider := uuid.New()
	prov := uuid.New()
	doadores.doadores[uuid.New()] = repo.Doador{
		ID: uuid.New(), NumeroBI: "004567890LA042", NomeCompleto: "Maria José",
		Genero: "F", FatorRH: "positive", CriadoPor: lider, ProvinciaID: prov,
	}
	h := newTestHandler(newStubContas(), doadores)

	req := httptest.NewRequest(http.MethodGet, "/api/export/donors?format=csv", nil)
	req = comIdentidade(req, acesso.Identidade{UtilizadorID: lider, Papel: acesso.PapelLider, ProvinciaID: prov})
	rec := httptest.NewRecorder()

	h.ExportarDoadores(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "doadores_")

	corpo := rec.Body.String()
	assert.True(t, strings.HasPrefix(corpo, "\uFEFF"), "CSV começa com BOM")
	assert.Contains(t, corpo, `"Número do BI"`)
	assert.Contains(t, corpo, `"Maria José"`)
	assert.Contains(t, corpo, `"Feminino"`)
	assert.Contains(t, corpo, `"Positivo"`)
}

func TestSessaoMiddlewareRecusaSemCookie(t *testing.T) {
	contas := newStubContas()
	sessoes := auth.NewSessaoManager(newFakeRedis(), time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := httpmiddleware.Sessao(sessoes, contas)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/donors", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessaoMiddlewareContaRemovida(t *testing.T) {
	contas := newStubContas()
	sessoes := auth.NewSessaoManager(newFakeRedis(), time.Hour)

	id, err := sessoes.Criar(context.Background(), auth.Sessao{
		UtilizadorID: uuid.New(),
		ProvinciaID:  uuid.New(),
		Papel:        "leader",
	})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := httpmiddleware.Sessao(sessoes, contas)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/donors", nil)
	req.AddCookie(&http.Cookie{Name: httpmiddleware.CookieSessao, Value: id})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "conta removida derruba a sessão")
}

func TestSessaoMiddlewareRederivaPapel(t *testing.T) {
	contas := newStubContas()
	sessoes := auth.NewSessaoManager(newFakeRedis(), time.Hour)

	user := contas.adicionar(t, "joao", "segredo1", "admin", uuid.New())

	// sessão gravada com papel antigo; a linha atual manda
	id, err := sessoes.Criar(context.Background(), auth.Sessao{
		UtilizadorID: user.ID,
		ProvinciaID:  user.ProvinciaID,
		Papel:        "leader",
	})
	require.NoError(t, err)

	var visto acesso.Identidade
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visto = httpmiddleware.GetIdentidade(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := httpmiddleware.Sessao(sessoes, contas)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/donors", nil)
	req.AddCookie(&http.Cookie{Name: httpmiddleware.CookieSessao, Value: id})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, acesso.PapelAdmin, visto.Papel)
}

func TestRequireAdminRecusaLider(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := httpmiddleware.RequireAdmin(next)

	req := httptest.NewRequest(http.MethodGet, "/api/leaders", nil)
	req = comIdentidade(req, acesso.Identidade{UtilizadorID: uuid.New(), Papel: acesso.PapelLider, ProvinciaID: uuid.New()})
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
