package service

import (
	"context"
	"errors"
	"testing"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

func newRegistryFixture() (*RegistryService, *fakePersonRepo, *fakeCatalogRepo) {
	persons := newFakePersonRepo()
	catalog := newFakeCatalogRepo()
	catalog.munis["mun1"] = model.Municipio{ID: "mun1", Nombre: "La Paz", CodDept: "dep1"}
	persons.rolesByName[model.RolTutor] = model.Role{ID: "rolTut", Nombre: model.RolTutor}
	return NewRegistryService(persons, catalog, nil), persons, catalog
}

func TestUpsertPersonCreatesThenUpdates(t *testing.T) {
	svc, persons, _ := newRegistryFixture()

	in := PersonInput{
		Nombre:          "Juan",
		ApellidoPaterno: "Mamani",
		Email:           "  Juan@Example.com ",
		Carnet:          "7654321",
	}
	created, err := svc.UpsertPerson(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("UpsertPerson: %v", err)
	}
	if created.Email != "juan@example.com" {
		t.Errorf("email must be lowercased and trimmed, got %q", created.Email)
	}

	in.Celular = "71111111"
	updated, err := svc.UpsertPerson(context.Background(), nil, in)
	if err != nil {
		t.Fatalf("UpsertPerson (update): %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("re-upserting the same email must keep the persona id")
	}
	if persons.personUpdates != 1 {
		t.Errorf("expected one update, got %d", persons.personUpdates)
	}
}

func TestUpsertPersonValidation(t *testing.T) {
	svc, _, _ := newRegistryFixture()

	_, err := svc.UpsertPerson(context.Background(), nil, PersonInput{Nombre: "Juan"})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing fields, got %v", err)
	}

	_, err = svc.UpsertPerson(context.Background(), nil, PersonInput{
		Nombre: "Juan", ApellidoPaterno: "Mamani", Email: "not-an-email", Carnet: "1",
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed email, got %v", err)
	}
}

func TestEnsureUserWithRoleIsIdempotent(t *testing.T) {
	svc, persons, _ := newRegistryFixture()

	first, err := svc.EnsureUserWithRole(context.Background(), nil, "per1", model.RolTutor, "secret")
	if err != nil {
		t.Fatalf("EnsureUserWithRole: %v", err)
	}
	if first.HashedPassword == "secret" {
		t.Errorf("password must be stored hashed")
	}

	second, err := svc.EnsureUserWithRole(context.Background(), nil, "per1", model.RolTutor, "other")
	if err != nil {
		t.Fatalf("EnsureUserWithRole (second): %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call must reuse the existing user account")
	}
	if persons.rolesAttached[first.ID] != "rolTut" {
		t.Errorf("Tutor role not attached")
	}
}

func TestEnsureUserWithRoleUnknownRole(t *testing.T) {
	svc, _, _ := newRegistryFixture()
	_, err := svc.EnsureUserWithRole(context.Background(), nil, "per1", "Regente", "secret")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
	}
}

func TestUpsertTutorRequiresKnownMunicipio(t *testing.T) {
	svc, _, _ := newRegistryFixture()
	_, err := svc.UpsertTutor(context.Background(), nil, "per1", "Colegio A", "nowhere", nil)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown municipio, got %v", err)
	}
}

func TestUpsertTutorCreatesThenUpdates(t *testing.T) {
	svc, persons, _ := newRegistryFixture()

	created, err := svc.UpsertTutor(context.Background(), nil, "per1", "Colegio A", "mun1", nil)
	if err != nil {
		t.Fatalf("UpsertTutor: %v", err)
	}

	area := "areaRob"
	updated, err := svc.UpsertTutor(context.Background(), nil, "per1", "Colegio B", "mun1", &area)
	if err != nil {
		t.Fatalf("UpsertTutor (update): %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("one tutor row per persona, got a second id")
	}
	if got := persons.tutorsByPerson["per1"]; got.Institucion != "Colegio B" || got.CodArea == nil {
		t.Errorf("tutor fields not refreshed: %+v", got)
	}
}
