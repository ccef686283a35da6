package repo

import (
	"time"

	"github.com/google/uuid"
)

// Provincia é dado de referência imutável, semeado uma única vez.
type Provincia struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"name"`
	CriadoEm time.Time `json:"createdAt"`
}

// Utilizador representa conta de acesso (admin ou líder).
type Utilizador struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	SenhaHash   string    `json:"-"`
	Nome        string    `json:"name"`
	Papel       string    `json:"role"`
	ProvinciaID uuid.UUID `json:"provinceId"`
	Provisoria  bool      `json:"isProvisional"`
	CriadoEm    time.Time `json:"createdAt"`
}

// Doador é o registro central do programa; numero_bi é único.
type Doador struct {
	ID                uuid.UUID `json:"id"`
	NumeroBI          string    `json:"biNumber"`
	NomeCompleto      string    `json:"fullName"`
	DataNascimento    string    `json:"birthDate"`
	Idade             int       `json:"age"`
	Genero            string    `json:"gender"`
	Municipio         string    `json:"municipality"`
	Bairro            string    `json:"neighborhood"`
	Contacto          string    `json:"contact"`
	Cargo             string    `json:"position"`
	Departamento      string    `json:"department"`
	TipoSanguineo     string    `json:"bloodType"`
	FatorRH           string    `json:"rhFactor"`
	TemHistorico      bool      `json:"hasHistory"`
	DoacoesAnteriores int       `json:"previousDonations"`
	UltimaDoacao      string    `json:"lastDonation"`
	RestricoesMedicas string    `json:"medicalRestrictions"`
	AptoParaDoar      bool      `json:"isAptToDonate"`
	DisponivelFuturo  bool      `json:"availableForFuture"`
	ContactoPreferido string    `json:"preferredContact"`
	Observacoes       string    `json:"observations"`
	ProvinciaID       uuid.UUID `json:"provinceId"`
	CriadoPor         uuid.UUID `json:"createdBy"`
	CriadoEm          time.Time `json:"createdAt"`
	AtualizadoEm      time.Time `json:"updatedAt"`
}

// Doacao é filho append-only de Doador; não há update nem delete.
type Doacao struct {
	ID         uuid.UUID `json:"id"`
	DoadorID   uuid.UUID `json:"donorId"`
	DataDoacao string    `json:"donationDate"`
	HoraDoacao string    `json:"donationTime"`
	Notas      string    `json:"notes"`
	CriadoEm   time.Time `json:"createdAt"`
}

// DoacaoDetalhada agrega dados do doador para listagens e exportação.
type DoacaoDetalhada struct {
	Doacao
	DoadorNome     string `json:"donorName"`
	DoadorNumeroBI string `json:"donorBiNumber"`
	TipoSanguineo  string `json:"bloodType"`
}

// TokenRecuperacao guarda apenas o hash; o valor em claro nunca é persistido.
type TokenRecuperacao struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	TokenHash string     `json:"-"`
	ExpiraEm  time.Time  `json:"expiresAt"`
	UsadoEm   *time.Time `json:"usedAt,omitempty"`
	CriadoEm  time.Time  `json:"createdAt"`
}
