package model

import "time"

const (
	RolAdministrador = "Administrador"
	RolCajero        = "Cajero"
	RolTutor         = "Tutor"
	RolCompetidor    = "Competidor"
)

// Person is the shared identity record. Email (lowercased) is the
// canonical natural key; carnet is a secondary unique attribute.
type Person struct {
	ID               string `json:"codPer"`
	Nombre           string `json:"nombre"`
	ApellidoPaterno  string `json:"apellidoPaterno"`
	ApellidoMaterno  string `json:"apellidoMaterno,omitempty"`
	Carnet           string `json:"carnet"`
	Email            string `json:"email"`
	Celular          string `json:"celular,omitempty"`
}

// User is the login account, one per person.
type User struct {
	ID             string `json:"codUserN"`
	PersonID       string `json:"codPer"`
	HashedPassword string `json:"-"`
}

type Role struct {
	ID     string `json:"codRol"`
	Nombre string `json:"nombreRol"`
}

// Tutor is the role specialization of a person responsible for
// competitors; CodArea is set for fixed subject-matter tutors.
type Tutor struct {
	ID          string  `json:"codTut"`
	PersonID    string  `json:"codPer"`
	Institucion string  `json:"institucion"`
	CodMun      string  `json:"codMun"`
	CodArea     *string `json:"codArea,omitempty"`
}

// Competitor is the role specialization of an enrolled person. Nivel is
// the effective level marker set by the last modality resolution; Grado
// is the declared label from the submission.
type Competitor struct {
	ID       string    `json:"codComp"`
	PersonID string    `json:"codPer"`
	FechaNac time.Time `json:"fechaNac"`
	CodMun   string    `json:"codMun"`
	Colegio  string    `json:"colegio"`
	Grado    string    `json:"grado"`
	Nivel    string    `json:"nivel"`
}
