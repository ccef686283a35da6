package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CORS libera apenas as origens de ALLOW_ORIGINS. Como a autenticação é por
// cookie, a resposta sempre ecoa o Origin permitido com credenciais; nunca é
// emitido "*". Entradas "*.dominio" casam qualquer subdomínio do painel.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	exatas := make(map[string]struct{}, len(allowedOrigins))
	var sufixos []string

	for _, entrada := range allowedOrigins {
		entrada = strings.TrimSpace(entrada)
		if entrada == "" {
			continue
		}
		if strings.HasPrefix(entrada, "*.") {
			sufixos = append(sufixos, strings.ToLower(strings.TrimPrefix(entrada, "*")))
			continue
		}
		exatas[entrada] = struct{}{}
	}

	permitida := func(origin string) bool {
		if origin == "" {
			return false
		}
		if _, ok := exatas[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Hostname())
		for _, sufixo := range sufixos {
			// sufixo começa com '.'; a raiz do domínio não conta como subdomínio
			if strings.HasSuffix(host, sufixo) && host != strings.TrimPrefix(sufixo, ".") {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if permitida(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
