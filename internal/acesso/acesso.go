// Package acesso concentra as regras de escopo por papel. Todo acesso a
// doadores, doações e estatísticas passa por uma Identidade resolvida da
// sessão; os handlers nunca re-derivam a lógica de papel.
package acesso

import (
	"errors"

	"github.com/google/uuid"
)

// Papel é o conjunto fechado de papéis do sistema.
type Papel string

const (
	// PapelAdmin tem visão entre províncias e gere líderes.
	PapelAdmin Papel = "admin"
	// PapelLider regista doadores restritos à própria província.
	PapelLider Papel = "leader"
)

var (
	// ErrAcessoNegado indica violação de escopo (papel, posse ou província).
	ErrAcessoNegado = errors.New("acesso negado")
	// ErrSemContexto indica chamada sem identidade resolvida. Consultas
	// agregadas sem contexto de utilizador são erro de programação e falham
	// alto em vez de vazar dados entre províncias.
	ErrSemContexto = errors.New("operação sem contexto de utilizador")
)

// PapelValido aceita apenas os papéis do conjunto fechado.
func PapelValido(p string) bool {
	switch Papel(p) {
	case PapelAdmin, PapelLider:
		return true
	}
	return false
}

// Identidade descreve o chamador autenticado.
type Identidade struct {
	UtilizadorID uuid.UUID
	Papel        Papel
	ProvinciaID  uuid.UUID
}

// Vazia indica identidade não resolvida.
func (i Identidade) Vazia() bool {
	return i.Papel == "" || i.UtilizadorID == uuid.Nil
}

// Admin informa se o chamador é administrador.
func (i Identidade) Admin() bool {
	return i.Papel == PapelAdmin
}

// Escopo restringe consultas sobre doadores. Campos nulos não filtram.
type Escopo struct {
	CriadoPor   *uuid.UUID
	ProvinciaID *uuid.UUID
}

// EscopoPesquisa devolve o escopo da pesquisa de doadores. Líderes veem
// apenas doadores que cadastraram, independentemente dos filtros enviados;
// admins podem restringir a uma província ou ver todas.
func (i Identidade) EscopoPesquisa(provinciaFiltro *uuid.UUID) (Escopo, error) {
	if i.Vazia() {
		return Escopo{}, ErrSemContexto
	}
	if i.Papel == PapelLider {
		id := i.UtilizadorID
		return Escopo{CriadoPor: &id}, nil
	}
	return Escopo{ProvinciaID: provinciaFiltro}, nil
}

// EscopoEstatisticas devolve o escopo das agregações. Líderes veem a
// própria província; admins a província pedida ou todas.
func (i Identidade) EscopoEstatisticas(provinciaFiltro *uuid.UUID) (Escopo, error) {
	if i.Vazia() {
		return Escopo{}, ErrSemContexto
	}
	if i.Papel == PapelLider {
		prov := i.ProvinciaID
		return Escopo{ProvinciaID: &prov}, nil
	}
	return Escopo{ProvinciaID: provinciaFiltro}, nil
}

// EscopoDoacoes devolve o escopo de visibilidade de doações (recentes e
// exportação). Para líderes o recorte é pela província do doador, não por
// quem o cadastrou; assimetria herdada do produto e mantida de propósito.
func (i Identidade) EscopoDoacoes() (Escopo, error) {
	if i.Vazia() {
		return Escopo{}, ErrSemContexto
	}
	if i.Papel == PapelLider {
		prov := i.ProvinciaID
		return Escopo{ProvinciaID: &prov}, nil
	}
	return Escopo{}, nil
}

// PodeAlterarDoador valida mutações (editar/eliminar). Líderes só alteram
// doadores que cadastraram; admins só doadores da própria província.
func (i Identidade) PodeAlterarDoador(criadoPor, provinciaID uuid.UUID) error {
	if i.Vazia() {
		return ErrSemContexto
	}
	switch i.Papel {
	case PapelLider:
		if criadoPor != i.UtilizadorID {
			return ErrAcessoNegado
		}
	case PapelAdmin:
		if provinciaID != i.ProvinciaID {
			return ErrAcessoNegado
		}
	default:
		return ErrAcessoNegado
	}
	return nil
}
