package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cvangola/doadores/internal/auth"
	"github.com/cvangola/doadores/internal/config"
	httpmiddleware "github.com/cvangola/doadores/internal/http/middleware"
	"github.com/cvangola/doadores/internal/mailer"
	"github.com/cvangola/doadores/internal/repo"
	"github.com/cvangola/doadores/internal/service"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	sessoes       *auth.SessaoManager
	authService   *service.AuthService
	recuperacao   *service.RecuperacaoService
	lideres       *service.LideresService
	doadores      *service.DoadoresService
	estatisticas  *service.EstatisticasService
	queries       *repo.Queries
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado com todos os serviços montados.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	queries := repo.New(pool)
	sessoes := auth.NewSessaoManager(redisClient, cfg.SessaoTTL)
	emails := mailer.NewClient(cfg.EmailAPIURL)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		sessoes:       sessoes,
		authService:   service.NewAuthService(queries, sessoes),
		recuperacao:   service.NewRecuperacaoService(queries, emails),
		lideres:       service.NewLideresService(queries, emails),
		doadores:      service.NewDoadoresService(queries),
		estatisticas:  service.NewEstatisticasService(queries),
		queries:       queries,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

			public.Get("/provinces", h.ListProvincias)
			public.Post("/auth/login", h.Login)
			public.Post("/auth/forgot-password", h.PedirRecuperacao)
			public.Post("/auth/reset-password-token", h.RedefinirComToken)
			public.Post("/admin/register-emergency", h.RegistarAdminEmergencia)
		})

		api.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Sessao(h.sessoes, h.queries))
			private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

			private.Post("/auth/logout", h.Logout)
			private.Get("/auth/me", h.Me)
			private.Post("/auth/reset-password", h.AlterarSenha)

			private.Route("/donors", func(d chi.Router) {
				d.Get("/", h.PesquisarDoadores)
				d.Post("/", h.CriarDoador)
				d.Get("/{id}", h.ObterDoador)
				d.Put("/{id}", h.AtualizarDoador)
				d.Delete("/{id}", h.EliminarDoador)
			})

			private.Route("/donations", func(d chi.Router) {
				d.Get("/donor/{donorId}", h.HistoricoDoacoes)
				d.Post("/", h.RegistarDoacao)
				d.Get("/recent", h.DoacoesRecentes)
			})

			private.Get("/stats", h.Estatisticas)

			private.Route("/export", func(e chi.Router) {
				e.Get("/donors", h.ExportarDoadores)
				e.Get("/donations", h.ExportarDoacoes)
				e.Get("/reports", h.ExportarRelatorios)
			})

			private.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireAdmin)

				admin.Route("/leaders", func(l chi.Router) {
					l.Get("/", h.ListarLideres)
					l.Post("/", h.CriarLider)
					l.Put("/{id}", h.AtualizarLider)
					l.Delete("/{id}", h.EliminarLider)
				})
				admin.Get("/users", h.ListarLideres)
				admin.Post("/admin/cleanup-tokens", h.LimparTokens)
			})
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
