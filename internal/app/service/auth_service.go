package service

import (
	"context"
	"errors"
	"fmt"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/common/security"
	"olimpiada_backend/internal/domain/repository"
)

type AuthService struct {
	personRepo repository.PersonRepository
}

func NewAuthService(personRepo repository.PersonRepository) *AuthService {
	return &AuthService{personRepo: personRepo}
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // email or nombre
	Password   string `json:"password"`
}

type AuthUser struct {
	CodPer string `json:"codPer"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol"`
}

type AuthResponse struct {
	User  AuthUser `json:"user"`
	Token string   `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	// Try finding by email first, then by nombre
	person, err := s.personRepo.FindByEmail(ctx, nil, req.LoginField)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("error finding person by email: %w", err)
		}
		person, err = s.personRepo.FindByNombre(ctx, req.LoginField)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnauthorized
			}
			return nil, fmt.Errorf("error finding person by nombre: %w", err)
		}
	}

	user, err := s.personRepo.FindUserByPerson(ctx, nil, person.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error finding user account: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	role, err := s.personRepo.FindRoleForPerson(ctx, person.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, fmt.Errorf("error finding role: %w", err)
	}

	token, err := security.GenerateToken(person.ID, person.Nombre, role.Nombre)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		User: AuthUser{
			CodPer: person.ID,
			Nombre: person.Nombre,
			Email:  person.Email,
			Rol:    role.Nombre,
		},
		Token: token,
	}, nil
}
