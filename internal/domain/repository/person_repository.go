package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

// PersonRepository covers the shared identity record plus its role
// specializations (user account, tutor, competitor).
type PersonRepository interface {
	FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.Person, error)
	FindByID(ctx context.Context, id string) (*model.Person, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Person, error)
	Create(ctx context.Context, tx *sql.Tx, p *model.Person) error
	Update(ctx context.Context, tx *sql.Tx, p *model.Person) error

	FindUserByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.User, error)
	CreateUser(ctx context.Context, tx *sql.Tx, u *model.User) error
	FindRoleByName(ctx context.Context, nombreRol string) (*model.Role, error)
	FindRoleForPerson(ctx context.Context, personID string) (*model.Role, error)
	AttachRole(ctx context.Context, tx *sql.Tx, userID, roleID string) error

	FindTutorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Tutor, error)
	FindTutorByID(ctx context.Context, tutorID string) (*model.Tutor, error)
	CreateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error
	UpdateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error

	FindCompetitorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Competitor, error)
	FindCompetitorByID(ctx context.Context, competitorID string) (*model.Competitor, error)
	UpsertCompetitor(ctx context.Context, tx *sql.Tx, c *model.Competitor) error
}

type pgPersonRepository struct {
	db *sql.DB
}

func NewPgPersonRepository(db *sql.DB) PersonRepository {
	return &pgPersonRepository{db: db}
}

const personColumns = `cod_per, nombre, apellido_paterno, COALESCE(apellido_materno, ''), carnet, email, COALESCE(celular, '')`

func scanPerson(row *sql.Row) (*model.Person, error) {
	p := &model.Person{}
	err := row.Scan(&p.ID, &p.Nombre, &p.ApellidoPaterno, &p.ApellidoMaterno, &p.Carnet, &p.Email, &p.Celular)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgPersonRepository) FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.Person, error) {
	row := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persona WHERE email = $1`, email)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindByEmail: %w", err)
	}
	return p, nil
}

func (r *pgPersonRepository) FindByID(ctx context.Context, id string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persona WHERE cod_per = $1`, id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindByID: %w", err)
	}
	return p, nil
}

// FindByNombre exists for the legacy login fallback where the login
// field carries a display name instead of an email.
func (r *pgPersonRepository) FindByNombre(ctx context.Context, nombre string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persona WHERE nombre = $1 LIMIT 1`, nombre)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindByNombre: %w", err)
	}
	return p, nil
}

func (r *pgPersonRepository) Create(ctx context.Context, tx *sql.Tx, p *model.Person) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO persona (cod_per, nombre, apellido_paterno, apellido_materno, carnet, email, celular)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''))`,
		p.ID, p.Nombre, p.ApellidoPaterno, p.ApellidoMaterno, p.Carnet, p.Email, p.Celular)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("persona with given email or carnet already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPersonRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) Update(ctx context.Context, tx *sql.Tx, p *model.Person) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`UPDATE persona SET nombre = $1, apellido_paterno = $2, apellido_materno = NULLIF($3, ''),
		        carnet = $4, celular = NULLIF($5, '')
		 WHERE cod_per = $6`,
		p.Nombre, p.ApellidoPaterno, p.ApellidoMaterno, p.Carnet, p.Celular, p.ID)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("carnet already belongs to another persona: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPersonRepository.Update: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) FindUserByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.User, error) {
	u := &model.User{}
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT cod_user_n, cod_per, passw_user FROM user_n WHERE cod_per = $1`, personID).
		Scan(&u.ID, &u.PersonID, &u.HashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindUserByPerson: %w", err)
	}
	return u, nil
}

func (r *pgPersonRepository) CreateUser(ctx context.Context, tx *sql.Tx, u *model.User) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO user_n (cod_user_n, cod_per, passw_user) VALUES ($1, $2, $3)`,
		u.ID, u.PersonID, u.HashedPassword)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("persona already has a user account: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPersonRepository.CreateUser: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) FindRoleByName(ctx context.Context, nombreRol string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_rol, nombre_rol FROM rol WHERE nombre_rol = $1`, nombreRol).
		Scan(&role.ID, &role.Nombre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindRoleByName: %w", err)
	}
	return role, nil
}

// FindRoleForPerson returns the first role attached to the person's
// user account, used for the login token claim.
func (r *pgPersonRepository) FindRoleForPerson(ctx context.Context, personID string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRowContext(ctx, `
		SELECT r.cod_rol, r.nombre_rol
		FROM rol r
		JOIN user_n_rol unr ON unr.cod_rol = r.cod_rol
		JOIN user_n u ON u.cod_user_n = unr.cod_user_n
		WHERE u.cod_per = $1
		LIMIT 1`, personID).
		Scan(&role.ID, &role.Nombre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindRoleForPerson: %w", err)
	}
	return role, nil
}

func (r *pgPersonRepository) AttachRole(ctx context.Context, tx *sql.Tx, userID, roleID string) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO user_n_rol (cod_user_n, cod_rol) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	if err != nil {
		return fmt.Errorf("pgPersonRepository.AttachRole: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) FindTutorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Tutor, error) {
	t := &model.Tutor{}
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT cod_tut, cod_per, institucion, cod_mun, cod_area FROM tutor WHERE cod_per = $1`, personID).
		Scan(&t.ID, &t.PersonID, &t.Institucion, &t.CodMun, &t.CodArea)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindTutorByPerson: %w", err)
	}
	return t, nil
}

func (r *pgPersonRepository) FindTutorByID(ctx context.Context, tutorID string) (*model.Tutor, error) {
	t := &model.Tutor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_tut, cod_per, institucion, cod_mun, cod_area FROM tutor WHERE cod_tut = $1`, tutorID).
		Scan(&t.ID, &t.PersonID, &t.Institucion, &t.CodMun, &t.CodArea)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindTutorByID: %w", err)
	}
	return t, nil
}

func (r *pgPersonRepository) CreateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO tutor (cod_tut, cod_per, institucion, cod_mun, cod_area)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.PersonID, t.Institucion, t.CodMun, t.CodArea)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("persona is already a tutor: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPersonRepository.CreateTutor: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) UpdateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`UPDATE tutor SET institucion = $1, cod_mun = $2, cod_area = $3 WHERE cod_tut = $4`,
		t.Institucion, t.CodMun, t.CodArea, t.ID)
	if err != nil {
		return fmt.Errorf("pgPersonRepository.UpdateTutor: %w", err)
	}
	return nil
}

func (r *pgPersonRepository) FindCompetitorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Competitor, error) {
	c := &model.Competitor{}
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT cod_comp, cod_per, fecha_nac, cod_mun, colegio, grado, nivel
		 FROM competidor WHERE cod_per = $1`, personID).
		Scan(&c.ID, &c.PersonID, &c.FechaNac, &c.CodMun, &c.Colegio, &c.Grado, &c.Nivel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindCompetitorByPerson: %w", err)
	}
	return c, nil
}

func (r *pgPersonRepository) FindCompetitorByID(ctx context.Context, competitorID string) (*model.Competitor, error) {
	c := &model.Competitor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_comp, cod_per, fecha_nac, cod_mun, colegio, grado, nivel
		 FROM competidor WHERE cod_comp = $1`, competitorID).
		Scan(&c.ID, &c.PersonID, &c.FechaNac, &c.CodMun, &c.Colegio, &c.Grado, &c.Nivel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPersonRepository.FindCompetitorByID: %w", err)
	}
	return c, nil
}

// UpsertCompetitor keeps at most one competitor row per person.
// Competitor-level fields follow the submission being processed, so a
// multi-area submission leaves the last selection's nivel in place.
func (r *pgPersonRepository) UpsertCompetitor(ctx context.Context, tx *sql.Tx, c *model.Competitor) error {
	// RETURNING yields the surviving row's cod_comp when the person
	// already has a competitor record.
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`INSERT INTO competidor (cod_comp, cod_per, fecha_nac, cod_mun, colegio, grado, nivel)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cod_per) DO UPDATE SET
		   fecha_nac = EXCLUDED.fecha_nac,
		   cod_mun = EXCLUDED.cod_mun,
		   colegio = EXCLUDED.colegio,
		   grado = EXCLUDED.grado,
		   nivel = EXCLUDED.nivel
		 RETURNING cod_comp`,
		c.ID, c.PersonID, c.FechaNac, c.CodMun, c.Colegio, c.Grado, c.Nivel).
		Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("pgPersonRepository.UpsertCompetitor: %w", err)
	}
	return nil
}
