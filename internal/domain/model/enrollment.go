package model

import "time"

type EnrollmentStatus string

const (
	EstadoPendiente  EnrollmentStatus = "Pendiente"
	EstadoVerificado EnrollmentStatus = "Verificado"
	EstadoAceptado   EnrollmentStatus = "Aceptado"
	EstadoRechazado  EnrollmentStatus = "Rechazado"
)

type PaymentStatus string

const (
	PagoPendiente PaymentStatus = "Pendiente"
	PagoPagado    PaymentStatus = "Pagado"
)

// Enrollment binds a competitor, tutor, competition and modality with a
// review status. MotivoRechazo is set iff the status is Rechazado.
type Enrollment struct {
	ID               string           `json:"codIns"`
	CompetitorID     string           `json:"codComp"`
	TutorID          string           `json:"codTutor"`
	CompetitionID    string           `json:"codCompet"`
	ModalityID       string           `json:"codModal"`
	Estado           EnrollmentStatus `json:"estadoInscripcion"`
	MotivoRechazo    *string          `json:"motivoRechazo,omitempty"`
	FechaInscripcion time.Time        `json:"fechaInscripcion"`
}

// Payment is created alongside its enrollment with status Pendiente and
// amount equal to the competition cost.
type Payment struct {
	ID           string        `json:"codPago"`
	EnrollmentID string        `json:"codIns"`
	Monto        float64       `json:"monto"`
	Estado       PaymentStatus `json:"estadoPago"`
}

// ValidTransition reports whether an enrollment may move from one
// review status to another. Aceptado is terminal; a rejection can be
// reversed back to Verificado, which drops the stored motivo.
func ValidTransition(from, to EnrollmentStatus) bool {
	switch from {
	case EstadoPendiente:
		return to == EstadoVerificado || to == EstadoRechazado
	case EstadoVerificado:
		return to == EstadoAceptado
	case EstadoRechazado:
		return to == EstadoVerificado
	default:
		return false
	}
}

// StatusCount is one bucket of the tutor's enrollment review summary.
type StatusCount struct {
	Estado EnrollmentStatus `json:"estado"`
	Total  int              `json:"total"`
}

// CompetitorRow is a flattened listing row (tutor and cashier views).
type CompetitorRow struct {
	CodComp          string           `json:"codComp"`
	CodIns           string           `json:"codIns"`
	Nombre           string           `json:"nombre"`
	ApellidoPaterno  string           `json:"apellidoPaterno"`
	Carnet           string           `json:"carnet"`
	Colegio          string           `json:"colegio"`
	GradoRange       *string          `json:"gradoRange"`
	Estado           EnrollmentStatus `json:"estadoInscripcion"`
	FechaInscripcion time.Time        `json:"fechaInscripcion"`
	Area             string           `json:"area"`
	Monto            *float64         `json:"monto,omitempty"`
	EstadoPago       *PaymentStatus   `json:"estadoPago,omitempty"`
}

// PaymentStats is the cashier dashboard aggregate.
type PaymentStats struct {
	TotalRegistros int     `json:"totalRegistros"`
	PagosExitosos  int     `json:"pagosExitosos"`
	TotalRecaudado float64 `json:"totalRecaudado"`
}
