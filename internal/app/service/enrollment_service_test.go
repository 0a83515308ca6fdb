package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

type enrollmentFixture struct {
	svc         *EnrollmentService
	persons     *fakePersonRepo
	catalog     *fakeCatalogRepo
	comps       *fakeCompetitionRepo
	enrollments *fakeEnrollmentRepo
	modalities  *fakeModalityRepo
	competition *model.Competition
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	persons := newFakePersonRepo()
	catalog := newFakeCatalogRepo()
	comps := newFakeCompetitionRepo()
	enrollments := newFakeEnrollmentRepo()
	modalities := newFakeModalityRepo()

	catalog.munis["mun1"] = model.Municipio{ID: "mun1", Nombre: "La Paz", CodDept: "dep1"}
	catalog.areas["Robótica"] = model.Area{ID: "areaRob", Nombre: "Robótica"}
	catalog.areas["Matemáticas"] = model.Area{ID: "areaMat", Nombre: "Matemáticas"}
	catalog.addGrade("g3p", 3, model.CicloPrimaria)
	catalog.levels["areaRob"] = []model.SpecialLevel{
		{ID: "nv1", Nombre: "Guido Guardian", GradoRange: "5to a 6to Primaria", AreaID: "areaRob"},
	}

	persons.rolesByName[model.RolCompetidor] = model.Role{ID: "rolComp", Nombre: model.RolCompetidor}
	persons.tutorsByID["tut1"] = model.Tutor{ID: "tut1", PersonID: "perTut", Institucion: "Colegio A", CodMun: "mun1"}

	competition := &model.Competition{
		ID:      "comp1",
		Nombre:  "Competencia 2026",
		Costo:   16.00,
		Gestion: 2026,
	}
	comps.comps[competition.ID] = *competition

	modalitySvc := NewModalityService(catalog, modalities)
	registry := NewRegistryService(persons, catalog, nil)
	svc := NewEnrollmentService(persons, catalog, comps, enrollments, modalitySvc, registry, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return &enrollmentFixture{
		svc:         svc,
		persons:     persons,
		catalog:     catalog,
		comps:       comps,
		enrollments: enrollments,
		modalities:  modalities,
		competition: competition,
	}
}

func validEnrollRequest() EnrollRequest {
	return EnrollRequest{
		Persona: PersonInput{
			Nombre:          "Ana",
			ApellidoPaterno: "Quispe",
			Email:           "ana@example.com",
			Carnet:          "1234567",
		},
		FechaNac: "2014-05-20",
		CodMun:   "mun1",
		Colegio:  "Colegio A",
		Grado:    "3ro Primaria",
		Areas: []AreaSelection{
			{Area: "Matemáticas", Nivel: "3ro Primaria", CodTut: "tut1"},
		},
	}
}

func TestEnrollRejectsEmptySelections(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	req.Areas = nil

	_, err := f.svc.Enroll(context.Background(), req)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.enrollments.enrollments) != 0 {
		t.Errorf("no enrollment should be written on validation failure")
	}
}

func TestEnrollRejectsUnknownTutorBeforeWriting(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	req.Areas[0].CodTut = "missing"

	_, err := f.svc.Enroll(context.Background(), req)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.persons.personsByEmail) != 0 {
		t.Errorf("no persona should be created when a tutor is missing")
	}
}

func TestEnrollRejectsUnknownMunicipio(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	req.CodMun = "nowhere"

	_, err := f.svc.Enroll(context.Background(), req)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrollRequiresActiveCompetition(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := f.svc.Enroll(context.Background(), validEnrollRequest())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no competencia exists for the gestion, got %v", err)
	}
}

func TestEnrollTxSingleArea(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	fechaNac, _ := time.Parse("2006-01-02", req.FechaNac)

	resp, err := f.svc.enrollTx(context.Background(), nil, f.competition, fechaNac, req)
	if err != nil {
		t.Fatalf("enrollTx: %v", err)
	}

	if len(resp.Inscripciones) != 1 {
		t.Fatalf("expected 1 inscripcion, got %d", len(resp.Inscripciones))
	}
	ref := resp.Inscripciones[0]

	enrollment, ok := f.enrollments.enrollments[ref.CodIns]
	if !ok {
		t.Fatalf("inscripcion %s not persisted", ref.CodIns)
	}
	if enrollment.Estado != model.EstadoPendiente {
		t.Errorf("new inscripcion estado = %s, want Pendiente", enrollment.Estado)
	}
	if enrollment.TutorID != "tut1" {
		t.Errorf("inscripcion tutor = %s, want tut1", enrollment.TutorID)
	}

	if len(f.enrollments.payments) != 1 {
		t.Fatalf("expected 1 pago, got %d", len(f.enrollments.payments))
	}
	pago := f.enrollments.payments[0]
	if pago.Monto != f.competition.Costo {
		t.Errorf("pago monto = %f, want %f", pago.Monto, f.competition.Costo)
	}
	if pago.Estado != model.PagoPendiente {
		t.Errorf("pago estado = %s, want Pendiente", pago.Estado)
	}

	// Person, user account and Competidor role all exist.
	person, err := f.persons.FindByEmail(context.Background(), nil, "ana@example.com")
	if err != nil {
		t.Fatalf("persona not created: %v", err)
	}
	user, err := f.persons.FindUserByPerson(context.Background(), nil, person.ID)
	if err != nil {
		t.Fatalf("user account not created: %v", err)
	}
	if f.persons.rolesAttached[user.ID] != "rolComp" {
		t.Errorf("Competidor role not attached")
	}
}

func TestEnrollTxMultiAreaSharesCompetitor(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	req.Areas = []AreaSelection{
		{Area: "Matemáticas", Nivel: "3ro Primaria", CodTut: "tut1"},
		{Area: "Robótica", Nivel: "Guido Guardian", CodTut: "tut1"},
	}
	fechaNac, _ := time.Parse("2006-01-02", req.FechaNac)

	resp, err := f.svc.enrollTx(context.Background(), nil, f.competition, fechaNac, req)
	if err != nil {
		t.Fatalf("enrollTx: %v", err)
	}
	if len(resp.Inscripciones) != 2 {
		t.Fatalf("expected 2 inscripciones, got %d", len(resp.Inscripciones))
	}
	if resp.Inscripciones[0].CodComp != resp.Inscripciones[1].CodComp {
		t.Errorf("both inscripciones must share one competidor row")
	}
	if len(f.persons.competitors) != 1 {
		t.Errorf("expected a single competidor row, got %d", len(f.persons.competitors))
	}

	// The level marker follows the last processed selection.
	for _, c := range f.persons.competitors {
		if c.Nivel != "nv1" {
			t.Errorf("competidor nivel = %q, want nv1 (last selection wins)", c.Nivel)
		}
	}
}

func TestEnrollTxReusesExistingPerson(t *testing.T) {
	f := newEnrollmentFixture(t)
	req := validEnrollRequest()
	fechaNac, _ := time.Parse("2006-01-02", req.FechaNac)

	if _, err := f.svc.enrollTx(context.Background(), nil, f.competition, fechaNac, req); err != nil {
		t.Fatalf("first enrollTx: %v", err)
	}
	req.Persona.Celular = "70000000"
	if _, err := f.svc.enrollTx(context.Background(), nil, f.competition, fechaNac, req); err != nil {
		t.Fatalf("second enrollTx: %v", err)
	}

	if len(f.persons.personsByEmail) != 1 {
		t.Fatalf("expected one persona, got %d", len(f.persons.personsByEmail))
	}
	person := f.persons.personsByEmail["ana@example.com"]
	if person.Celular != "70000000" {
		t.Errorf("mutable persona fields must refresh on re-enrollment")
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	motivo := "Documentos incompletos"
	tests := []struct {
		name    string
		from    model.EnrollmentStatus
		to      model.EnrollmentStatus
		motivo  *string
		wantErr error
	}{
		{"pendiente to verificado", model.EstadoPendiente, model.EstadoVerificado, nil, nil},
		{"pendiente to rechazado", model.EstadoPendiente, model.EstadoRechazado, &motivo, nil},
		{"verificado to aceptado", model.EstadoVerificado, model.EstadoAceptado, nil, nil},
		{"pendiente to aceptado skips review", model.EstadoPendiente, model.EstadoAceptado, nil, common.ErrValidation},
		{"aceptado is terminal", model.EstadoAceptado, model.EstadoVerificado, nil, common.ErrValidation},
		{"rechazado back to verificado", model.EstadoRechazado, model.EstadoVerificado, nil, nil},
		{"rechazado to aceptado skips review", model.EstadoRechazado, model.EstadoAceptado, nil, common.ErrValidation},
		{"rechazo without motivo", model.EstadoPendiente, model.EstadoRechazado, nil, common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEnrollmentFixture(t)
			f.enrollments.enrollments["ins1"] = model.Enrollment{ID: "ins1", Estado: tt.from}

			updated, err := f.svc.UpdateStatus(context.Background(), "ins1", UpdateStatusRequest{
				Estado:        tt.to,
				MotivoRechazo: tt.motivo,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if updated.Estado != tt.to {
				t.Errorf("estado = %s, want %s", updated.Estado, tt.to)
			}
			if tt.to == model.EstadoRechazado {
				if updated.MotivoRechazo == nil || *updated.MotivoRechazo != motivo {
					t.Errorf("motivoRechazo not stored on rejection")
				}
			} else if updated.MotivoRechazo != nil {
				t.Errorf("motivoRechazo must be empty outside Rechazado")
			}
		})
	}
}

func TestUpdateStatusRevertedRejectionClearsMotivo(t *testing.T) {
	f := newEnrollmentFixture(t)
	f.enrollments.enrollments["ins1"] = model.Enrollment{ID: "ins1", Estado: model.EstadoPendiente}

	motivo := "Carnet ilegible"
	rejected, err := f.svc.UpdateStatus(context.Background(), "ins1", UpdateStatusRequest{
		Estado:        model.EstadoRechazado,
		MotivoRechazo: &motivo,
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.MotivoRechazo == nil || *rejected.MotivoRechazo != motivo {
		t.Fatalf("motivoRechazo not stored on rejection")
	}

	verified, err := f.svc.UpdateStatus(context.Background(), "ins1", UpdateStatusRequest{
		Estado: model.EstadoVerificado,
	})
	if err != nil {
		t.Fatalf("verify after rejection: %v", err)
	}
	if verified.Estado != model.EstadoVerificado {
		t.Errorf("estado = %s, want %s", verified.Estado, model.EstadoVerificado)
	}
	if verified.MotivoRechazo != nil {
		t.Errorf("motivoRechazo must be cleared when leaving Rechazado, got %q", *verified.MotivoRechazo)
	}
}

func TestUpdateStatusUnknownEnrollment(t *testing.T) {
	f := newEnrollmentFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), "ghost", UpdateStatusRequest{Estado: model.EstadoVerificado})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNivelCode(t *testing.T) {
	gradeID := "g3p"
	levelID := "nv1"
	regular := &model.Modality{GradeID: &gradeID}
	special := &model.Modality{SpecialLevelID: &levelID}

	if got := nivelCode(regular, "3ro Primaria"); got != "3" {
		t.Errorf("nivelCode(regular) = %q, want 3", got)
	}
	if got := nivelCode(special, "Guido Guardian"); got != "nv1" {
		t.Errorf("nivelCode(special) = %q, want nv1", got)
	}
}
