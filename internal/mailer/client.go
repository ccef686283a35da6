package mailer

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Mailer dispara emails transacionais.
type Mailer interface {
	EnviarBoasVindas(ctx context.Context, email, nome string) error
	EnviarSenhaProvisoria(ctx context.Context, email, nome, senha string) error
	EnviarRecuperacao(ctx context.Context, email, nome, token string) error
}

// Client fala com o serviço externo de email por GET com query string.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// EnviarBoasVindas avisa o novo utilizador que a conta foi criada.
func (c *Client) EnviarBoasVindas(ctx context.Context, email, nome string) error {
	return c.enviar(ctx, url.Values{
		"tipo":  {"bemvindo"},
		"email": {email},
		"user":  {nome},
	})
}

// EnviarSenhaProvisoria entrega a senha provisória gerada para o novo líder.
func (c *Client) EnviarSenhaProvisoria(ctx context.Context, email, nome, senha string) error {
	return c.enviar(ctx, url.Values{
		"tipo":            {"senha"},
		"email":           {email},
		"user":            {nome},
		"senhaprovisoria": {senha},
	})
}

// EnviarRecuperacao entrega o token de recuperação de senha em claro; o
// armazenamento só guarda o hash.
func (c *Client) EnviarRecuperacao(ctx context.Context, email, nome, token string) error {
	return c.enviar(ctx, url.Values{
		"tipo":  {"recuperar"},
		"email": {email},
		"user":  {nome},
		"token": {token},
	})
}

func (c *Client) enviar(ctx context.Context, params url.Values) error {
	if c == nil || c.baseURL == "" {
		return errors.New("serviço de email não configurado")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("serviço de email recusou o envio")
	}
	return nil
}
