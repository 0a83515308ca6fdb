package model

import "time"

const EtapaEstadoActivo = "ACTIVO"

// Competition is one yearly event ("Competencia 2025"). FechaIni and
// FechaFin bound the whole event and are derived from the first and
// last stage; Gestion is the management year used to pick the active
// competition during registration.
type Competition struct {
	ID         string    `json:"codCompet"`
	Nombre     string    `json:"nombreCompet"`
	Slug       string    `json:"slug"`
	FechaIni   time.Time `json:"fechaIni"`
	FechaFin   time.Time `json:"fechaFin"`
	HoraIniIns time.Time `json:"horaIniIns"`
	HoraFinIns time.Time `json:"horaFinIns"`
	Costo      float64   `json:"costo"`
	Gestion    int       `json:"gestion"`
	Etapas     []Stage   `json:"etapas,omitempty"`
}

// Stage is one dated phase of a competition. Orden is 1-based and
// defines the sequence; NombreEtapa is unique within the competition.
type Stage struct {
	ID            string    `json:"codEtapa"`
	CompetitionID string    `json:"codCompetencia"`
	NombreEtapa   string    `json:"nombreEtapa"`
	FechaInicio   time.Time `json:"fechaInicio"`
	FechaFin      time.Time `json:"fechaFin"`
	Orden         int       `json:"orden"`
	Estado        string    `json:"estado"`
}

// Modality is the resolved eligibility unit: one competition + one area
// + exactly one of Grade or SpecialLevel. At most one row exists per
// (competition, area, grade) and per (competition, area, specialLevel).
type Modality struct {
	ID             string  `json:"codModal"`
	CompetitionID  string  `json:"codCompet"`
	AreaID         string  `json:"codArea"`
	GradeID        *string `json:"codGrado,omitempty"`
	SpecialLevelID *string `json:"codNivelEspecial,omitempty"`
}
