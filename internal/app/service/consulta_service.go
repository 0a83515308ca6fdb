package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"
)

// ConsultaService serves the read-only views: tutor dashboards and the
// public catalog used by the registration form.
type ConsultaService struct {
	personRepo      repository.PersonRepository
	catalogRepo     repository.CatalogRepository
	competitionRepo repository.CompetitionRepository
	enrollmentRepo  repository.EnrollmentRepository
	now             func() time.Time
}

func NewConsultaService(
	personRepo repository.PersonRepository,
	catalogRepo repository.CatalogRepository,
	competitionRepo repository.CompetitionRepository,
	enrollmentRepo repository.EnrollmentRepository,
) *ConsultaService {
	return &ConsultaService{
		personRepo:      personRepo,
		catalogRepo:     catalogRepo,
		competitionRepo: competitionRepo,
		enrollmentRepo:  enrollmentRepo,
		now:             time.Now,
	}
}

func (s *ConsultaService) tutorForPerson(ctx context.Context, personID string) (*model.Tutor, error) {
	tutor, err := s.personRepo.FindTutorByPerson(ctx, nil, personID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("no tutor registered for this account: %w", common.ErrForbidden)
		}
		return nil, err
	}
	return tutor, nil
}

// CompetidoresByTutor lists the enrollments assigned to the tutor
// behind the authenticated person.
func (s *ConsultaService) CompetidoresByTutor(ctx context.Context, personID string) ([]model.CompetitorRow, error) {
	tutor, err := s.tutorForPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.enrollmentRepo.ListByTutor(ctx, tutor.ID)
}

// EstadoCounts reports the tutor's enrollment totals per review status.
func (s *ConsultaService) EstadoCounts(ctx context.Context, personID string) ([]model.StatusCount, error) {
	tutor, err := s.tutorForPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	return s.enrollmentRepo.CountByStatusForTutor(ctx, tutor.ID)
}

// AreasByCompetitor lists the areas a competitor account is enrolled in.
func (s *ConsultaService) AreasByCompetitor(ctx context.Context, personID string) ([]model.Area, error) {
	return s.enrollmentRepo.ListAreasByPerson(ctx, personID)
}

func (s *ConsultaService) Areas(ctx context.Context) ([]model.Area, error) {
	return s.catalogRepo.ListAreas(ctx)
}

func (s *ConsultaService) Departamentos(ctx context.Context) ([]model.Departamento, error) {
	return s.catalogRepo.ListDepartamentos(ctx)
}

func (s *ConsultaService) Municipios(ctx context.Context, codDept string) ([]model.Municipio, error) {
	return s.catalogRepo.ListMunicipiosByDepartamento(ctx, codDept)
}

// GradosNivel builds the catalog the registration form renders for an
// area: regular grades bucketed by cycle, priced at the active
// competition's cost, plus the area's special levels.
func (s *ConsultaService) GradosNivel(ctx context.Context, areaID string) (*model.AreaCatalog, error) {
	costo := 0.0
	competition, err := s.competitionRepo.FindActiveByGestion(ctx, s.now().Year())
	if err == nil {
		costo = competition.Costo
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	grades, err := s.catalogRepo.ListGradesByArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	levels, err := s.catalogRepo.ListSpecialLevelsByArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	catalog := &model.AreaCatalog{CodArea: areaID}
	for _, g := range grades {
		entry := model.AreaGradeLevel{
			CodGrado: g.ID,
			Grade:    fmt.Sprintf("%d %s", g.Numero, g.Ciclo),
			Level:    fmt.Sprintf("%d", g.Numero),
			Price:    costo,
		}
		if g.Ciclo == model.CicloSecundaria {
			catalog.Secondary = append(catalog.Secondary, entry)
		} else {
			catalog.Primary = append(catalog.Primary, entry)
		}
	}
	for _, l := range levels {
		entry := model.AreaGradeLevel{
			CodGrado: l.ID,
			Grade:    l.GradoRange,
			Level:    l.Nombre,
			Price:    costo,
		}
		// A special level shows up in every cycle its range text names.
		inSecundaria := strings.Contains(strings.ToLower(l.GradoRange), "secundaria")
		inPrimaria := strings.Contains(strings.ToLower(l.GradoRange), "primaria") || !inSecundaria
		if inPrimaria {
			catalog.Primary = append(catalog.Primary, entry)
		}
		if inSecundaria {
			catalog.Secondary = append(catalog.Secondary, entry)
		}
	}
	return catalog, nil
}
