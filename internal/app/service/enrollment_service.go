package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"
	"olimpiada_backend/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EnrollmentService runs the registration workflow: one submission with
// one or more (area, nivel) selections becomes, atomically, a person,
// a competitor, and an enrollment plus pending payment per selection.
type EnrollmentService struct {
	personRepo      repository.PersonRepository
	catalogRepo     repository.CatalogRepository
	competitionRepo repository.CompetitionRepository
	enrollmentRepo  repository.EnrollmentRepository
	modalitySvc     *ModalityService
	registry        *RegistryService
	db              *sql.DB
	rdb             *redis.Client
	now             func() time.Time
}

func NewEnrollmentService(
	personRepo repository.PersonRepository,
	catalogRepo repository.CatalogRepository,
	competitionRepo repository.CompetitionRepository,
	enrollmentRepo repository.EnrollmentRepository,
	modalitySvc *ModalityService,
	registry *RegistryService,
	db *sql.DB,
	rdb *redis.Client,
) *EnrollmentService {
	return &EnrollmentService{
		personRepo:      personRepo,
		catalogRepo:     catalogRepo,
		competitionRepo: competitionRepo,
		enrollmentRepo:  enrollmentRepo,
		modalitySvc:     modalitySvc,
		registry:        registry,
		db:              db,
		rdb:             rdb,
		now:             time.Now,
	}
}

type AreaSelection struct {
	Area   string `json:"area"`
	Nivel  string `json:"nivel"`
	CodTut string `json:"codTut"`
}

type EnrollRequest struct {
	Persona  PersonInput     `json:"persona"`
	FechaNac string          `json:"fechaNac"` // YYYY-MM-DD
	CodMun   string          `json:"codMun"`
	Colegio  string          `json:"colegio"`
	Grado    string          `json:"grado"`
	Areas    []AreaSelection `json:"areas"`
}

type EnrollmentRef struct {
	CodIns   string `json:"codIns"`
	CodModal string `json:"codModal"`
	CodComp  string `json:"codComp"`
	CodTutor string `json:"codTutor"`
}

type EnrollResponse struct {
	Persona struct {
		CodPer string `json:"codPer"`
		Email  string `json:"email"`
	} `json:"persona"`
	Inscripciones []EnrollmentRef `json:"inscripciones"`
	Mensaje       string          `json:"mensaje"`
}

// Enroll validates the submission, then executes it as one transaction.
// Nothing is written when any selection fails.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResponse, error) {
	if len(req.Areas) == 0 {
		return nil, common.Errorf("at least one (area, nivel) selection is required: %w", common.ErrValidation)
	}
	if err := req.Persona.validate(); err != nil {
		return nil, err
	}
	fechaNac, err := time.Parse("2006-01-02", req.FechaNac)
	if err != nil {
		return nil, common.Errorf("fechaNac %q is not a valid date: %w", req.FechaNac, common.ErrValidation)
	}
	if _, err := s.catalogRepo.FindMunicipioByID(ctx, req.CodMun); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("municipio %q not found: %w", req.CodMun, common.ErrNotFound)
		}
		return nil, err
	}
	for _, sel := range req.Areas {
		if sel.Area == "" || sel.Nivel == "" || sel.CodTut == "" {
			return nil, common.Errorf("every selection needs area, nivel and codTut: %w", common.ErrValidation)
		}
		if _, err := s.personRepo.FindTutorByID(ctx, sel.CodTut); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.Errorf("tutor %q not found: %w", sel.CodTut, common.ErrNotFound)
			}
			return nil, err
		}
	}

	competition, err := s.competitionRepo.FindActiveByGestion(ctx, s.now().Year())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("no competencia found for gestion %d: %w", s.now().Year(), common.ErrNotFound)
		}
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	resp, err := s.enrollTx(ctx, tx, competition, fechaNac, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit enrollment transaction: %w", err)
	}

	s.enqueueReceipts(ctx, resp.Inscripciones)
	return resp, nil
}

// enrollTx is the transactional body of Enroll.
func (s *EnrollmentService) enrollTx(ctx context.Context, tx *sql.Tx, competition *model.Competition, fechaNac time.Time, req EnrollRequest) (*EnrollResponse, error) {
	person, err := s.registry.UpsertPerson(ctx, tx, req.Persona)
	if err != nil {
		return nil, err
	}
	// New accounts start with the carnet as password; competitors reset
	// it on first login.
	if _, err := s.registry.EnsureUserWithRole(ctx, tx, person.ID, model.RolCompetidor, req.Persona.Carnet); err != nil {
		return nil, err
	}

	resp := &EnrollResponse{}
	resp.Persona.CodPer = person.ID
	resp.Persona.Email = person.Email

	competitor := &model.Competitor{
		ID:       uuid.NewString(),
		PersonID: person.ID,
		FechaNac: fechaNac,
		CodMun:   req.CodMun,
		Colegio:  req.Colegio,
		Grado:    req.Grado,
	}

	for _, sel := range req.Areas {
		area, err := s.catalogRepo.FindAreaByName(ctx, sel.Area)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.Errorf("area %q not found: %w", sel.Area, common.ErrNotFound)
			}
			return nil, err
		}

		modality, err := s.modalitySvc.Resolve(ctx, tx, competition.ID, area.ID, sel.Nivel)
		if err != nil {
			return nil, err
		}

		// The competitor row is shared across selections; the level
		// marker keeps the last resolved value.
		competitor.Nivel = nivelCode(modality, sel.Nivel)
		if err := s.personRepo.UpsertCompetitor(ctx, tx, competitor); err != nil {
			return nil, err
		}

		enrollment := &model.Enrollment{
			ID:               uuid.NewString(),
			CompetitorID:     competitor.ID,
			TutorID:          sel.CodTut,
			CompetitionID:    competition.ID,
			ModalityID:       modality.ID,
			Estado:           model.EstadoPendiente,
			FechaInscripcion: s.now(),
		}
		if err := s.enrollmentRepo.CreateEnrollment(ctx, tx, enrollment); err != nil {
			return nil, err
		}

		payment := &model.Payment{
			ID:           uuid.NewString(),
			EnrollmentID: enrollment.ID,
			Monto:        competition.Costo,
			Estado:       model.PagoPendiente,
		}
		if err := s.enrollmentRepo.CreatePayment(ctx, tx, payment); err != nil {
			return nil, err
		}

		resp.Inscripciones = append(resp.Inscripciones, EnrollmentRef{
			CodIns:   enrollment.ID,
			CodModal: modality.ID,
			CodComp:  competitor.ID,
			CodTutor: sel.CodTut,
		})
	}

	resp.Mensaje = fmt.Sprintf("Inscripción registrada en %d área(s)", len(resp.Inscripciones))
	return resp, nil
}

// nivelCode is the competitor-level marker: the grade number for
// regular levels, the special level id otherwise.
func nivelCode(modality *model.Modality, descriptor string) string {
	if numero, _, ok := ParseRegularLevel(descriptor); ok && modality.GradeID != nil {
		return strconv.Itoa(numero)
	}
	if modality.SpecialLevelID != nil {
		return *modality.SpecialLevelID
	}
	return descriptor
}

// enqueueReceipts pushes enrollment ids onto the receipt queue after
// commit. Failures only lose the notification, never the enrollment.
func (s *EnrollmentService) enqueueReceipts(ctx context.Context, refs []EnrollmentRef) {
	if s.rdb == nil {
		return
	}
	for _, ref := range refs {
		if err := s.rdb.LPush(ctx, config.AppConfig.ReceiptQueueName, ref.CodIns).Err(); err != nil {
			log.Printf("ERROR: failed to enqueue receipt for inscripcion %s: %v", ref.CodIns, err)
		}
	}
}

type UpdateStatusRequest struct {
	Estado        model.EnrollmentStatus `json:"estado"`
	MotivoRechazo *string                `json:"motivoRechazo,omitempty"`
}

// UpdateStatus applies the review state machine. Rechazado demands a
// reason; moving anywhere else clears any stored reason.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, enrollmentID string, req UpdateStatusRequest) (*model.Enrollment, error) {
	switch req.Estado {
	case model.EstadoPendiente, model.EstadoVerificado, model.EstadoAceptado, model.EstadoRechazado:
	default:
		return nil, common.Errorf("estado %q is not a valid enrollment status: %w", req.Estado, common.ErrValidation)
	}

	enrollment, err := s.enrollmentRepo.FindEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !model.ValidTransition(enrollment.Estado, req.Estado) {
		return nil, common.Errorf("cannot move inscripcion from %s to %s: %w", enrollment.Estado, req.Estado, common.ErrValidation)
	}

	var motivo *string
	if req.Estado == model.EstadoRechazado {
		if req.MotivoRechazo == nil || *req.MotivoRechazo == "" {
			return nil, common.Errorf("motivoRechazo is required to reject an inscripcion: %w", common.ErrValidation)
		}
		motivo = req.MotivoRechazo
	}

	if err := s.enrollmentRepo.UpdateEnrollmentStatus(ctx, nil, enrollmentID, req.Estado, motivo); err != nil {
		return nil, err
	}
	enrollment.Estado = req.Estado
	enrollment.MotivoRechazo = motivo
	return enrollment, nil
}
