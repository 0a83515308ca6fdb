package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/common/security"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"

	"github.com/google/uuid"
)

// RegistryService upserts people and their role specializations.
// Persona identity is keyed by the lowercased email; carnet stays a
// validated unique attribute but never drives the match.
type RegistryService struct {
	personRepo  repository.PersonRepository
	catalogRepo repository.CatalogRepository
	db          *sql.DB
}

func NewRegistryService(personRepo repository.PersonRepository, catalogRepo repository.CatalogRepository, db *sql.DB) *RegistryService {
	return &RegistryService{personRepo: personRepo, catalogRepo: catalogRepo, db: db}
}

type PersonInput struct {
	Nombre          string `json:"nombre"`
	ApellidoPaterno string `json:"apellidoPaterno"`
	ApellidoMaterno string `json:"apellidoMaterno"`
	Email           string `json:"email"`
	Celular         string `json:"celular"`
	Carnet          string `json:"carnet"`
}

func (in PersonInput) validate() error {
	if in.Nombre == "" || in.ApellidoPaterno == "" || in.Email == "" || in.Carnet == "" {
		return common.Errorf("nombre, apellidoPaterno, email and carnet are required: %w", common.ErrValidation)
	}
	if !strings.Contains(in.Email, "@") {
		return common.Errorf("email %q is malformed: %w", in.Email, common.ErrValidation)
	}
	return nil
}

// UpsertPerson finds the person by email or creates them, refreshing
// the mutable identity fields on a match.
func (s *RegistryService) UpsertPerson(ctx context.Context, tx *sql.Tx, in PersonInput) (*model.Person, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	person, err := s.personRepo.FindByEmail(ctx, tx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if person == nil {
		person = &model.Person{
			ID:              uuid.NewString(),
			Nombre:          in.Nombre,
			ApellidoPaterno: in.ApellidoPaterno,
			ApellidoMaterno: in.ApellidoMaterno,
			Carnet:          in.Carnet,
			Email:           email,
			Celular:         in.Celular,
		}
		if err := s.personRepo.Create(ctx, tx, person); err != nil {
			return nil, err
		}
		return person, nil
	}

	person.Nombre = in.Nombre
	person.ApellidoPaterno = in.ApellidoPaterno
	person.ApellidoMaterno = in.ApellidoMaterno
	person.Carnet = in.Carnet
	person.Celular = in.Celular
	if err := s.personRepo.Update(ctx, tx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// EnsureUserWithRole creates the person's login account if absent and
// attaches the named role, resolved against the role catalog. Both
// steps are idempotent.
func (s *RegistryService) EnsureUserWithRole(ctx context.Context, tx *sql.Tx, personID, roleName, initialPassword string) (*model.User, error) {
	user, err := s.personRepo.FindUserByPerson(ctx, tx, personID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		hashed, err := security.HashPassword(initialPassword)
		if err != nil {
			return nil, common.Errorf("failed to hash password: %w", err)
		}
		user = &model.User{ID: uuid.NewString(), PersonID: personID, HashedPassword: hashed}
		if err := s.personRepo.CreateUser(ctx, tx, user); err != nil {
			return nil, err
		}
	}

	role, err := s.personRepo.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("rol %q not found: %w", roleName, common.ErrNotFound)
		}
		return nil, err
	}
	if err := s.personRepo.AttachRole(ctx, tx, user.ID, role.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertTutor keeps at most one tutor row per person.
func (s *RegistryService) UpsertTutor(ctx context.Context, tx *sql.Tx, personID, institucion, codMun string, codArea *string) (*model.Tutor, error) {
	if _, err := s.catalogRepo.FindMunicipioByID(ctx, codMun); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("municipio %q not found: %w", codMun, common.ErrNotFound)
		}
		return nil, err
	}

	tutor, err := s.personRepo.FindTutorByPerson(ctx, tx, personID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		tutor = &model.Tutor{
			ID:          uuid.NewString(),
			PersonID:    personID,
			Institucion: institucion,
			CodMun:      codMun,
			CodArea:     codArea,
		}
		if err := s.personRepo.CreateTutor(ctx, tx, tutor); err != nil {
			return nil, err
		}
		return tutor, nil
	}

	tutor.Institucion = institucion
	tutor.CodMun = codMun
	tutor.CodArea = codArea
	if err := s.personRepo.UpdateTutor(ctx, tx, tutor); err != nil {
		return nil, err
	}
	return tutor, nil
}

type RegisterTutorRequest struct {
	Persona     PersonInput `json:"persona"`
	Password    string      `json:"password"`
	Institucion string      `json:"institucion"`
	CodMun      string      `json:"codMun"`
	CodArea     *string     `json:"codArea,omitempty"`
}

// RegisterTutor is the admin operation that provisions a tutor account
// in one transaction: person, user, Tutor role, tutor row.
func (s *RegistryService) RegisterTutor(ctx context.Context, req RegisterTutorRequest) (*model.Tutor, error) {
	if req.Institucion == "" || req.CodMun == "" {
		return nil, common.Errorf("institucion and codMun are required: %w", common.ErrValidation)
	}
	if req.Password == "" {
		req.Password = req.Persona.Carnet
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	person, err := s.UpsertPerson(ctx, tx, req.Persona)
	if err != nil {
		return nil, err
	}
	if _, err := s.EnsureUserWithRole(ctx, tx, person.ID, model.RolTutor, req.Password); err != nil {
		return nil, err
	}
	tutor, err := s.UpsertTutor(ctx, tx, person.ID, req.Institucion, req.CodMun, req.CodArea)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return tutor, nil
}
