package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

// ModalityRepository persists the resolved (competition, area, level)
// eligibility units. Create relies on the partial unique indexes: a
// concurrent duplicate insert affects zero rows and surfaces as
// common.ErrConflict so the caller can re-read the surviving row.
type ModalityRepository interface {
	FindByGrade(ctx context.Context, tx *sql.Tx, competitionID, areaID, gradeID string) (*model.Modality, error)
	FindBySpecialLevel(ctx context.Context, tx *sql.Tx, competitionID, areaID, specialLevelID string) (*model.Modality, error)
	Create(ctx context.Context, tx *sql.Tx, m *model.Modality) error
	FindByID(ctx context.Context, id string) (*model.Modality, error)
}

type pgModalityRepository struct {
	db *sql.DB
}

func NewPgModalityRepository(db *sql.DB) ModalityRepository {
	return &pgModalityRepository{db: db}
}

func (r *pgModalityRepository) FindByGrade(ctx context.Context, tx *sql.Tx, competitionID, areaID, gradeID string) (*model.Modality, error) {
	m := &model.Modality{}
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT cod_modal, cod_compet, cod_area, cod_grado, cod_nivel_especial
		 FROM modalidad_competencia
		 WHERE cod_compet = $1 AND cod_area = $2 AND cod_grado = $3`,
		competitionID, areaID, gradeID).
		Scan(&m.ID, &m.CompetitionID, &m.AreaID, &m.GradeID, &m.SpecialLevelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgModalityRepository.FindByGrade: %w", err)
	}
	return m, nil
}

func (r *pgModalityRepository) FindBySpecialLevel(ctx context.Context, tx *sql.Tx, competitionID, areaID, specialLevelID string) (*model.Modality, error) {
	m := &model.Modality{}
	err := orDB(r.db, tx).QueryRowContext(ctx,
		`SELECT cod_modal, cod_compet, cod_area, cod_grado, cod_nivel_especial
		 FROM modalidad_competencia
		 WHERE cod_compet = $1 AND cod_area = $2 AND cod_nivel_especial = $3`,
		competitionID, areaID, specialLevelID).
		Scan(&m.ID, &m.CompetitionID, &m.AreaID, &m.GradeID, &m.SpecialLevelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgModalityRepository.FindBySpecialLevel: %w", err)
	}
	return m, nil
}

func (r *pgModalityRepository) Create(ctx context.Context, tx *sql.Tx, m *model.Modality) error {
	var query string
	var args []any
	switch {
	case m.GradeID != nil:
		query = `INSERT INTO modalidad_competencia (cod_modal, cod_compet, cod_area, cod_grado)
		         VALUES ($1, $2, $3, $4)
		         ON CONFLICT (cod_compet, cod_area, cod_grado) WHERE cod_grado IS NOT NULL DO NOTHING`
		args = []any{m.ID, m.CompetitionID, m.AreaID, *m.GradeID}
	case m.SpecialLevelID != nil:
		query = `INSERT INTO modalidad_competencia (cod_modal, cod_compet, cod_area, cod_nivel_especial)
		         VALUES ($1, $2, $3, $4)
		         ON CONFLICT (cod_compet, cod_area, cod_nivel_especial) WHERE cod_nivel_especial IS NOT NULL DO NOTHING`
		args = []any{m.ID, m.CompetitionID, m.AreaID, *m.SpecialLevelID}
	default:
		return fmt.Errorf("modality needs a grade or a special level: %w", common.ErrValidation)
	}

	res, err := orDB(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgModalityRepository.Create: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgModalityRepository.Create rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrConflict
	}
	return nil
}

func (r *pgModalityRepository) FindByID(ctx context.Context, id string) (*model.Modality, error) {
	m := &model.Modality{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_modal, cod_compet, cod_area, cod_grado, cod_nivel_especial
		 FROM modalidad_competencia WHERE cod_modal = $1`, id).
		Scan(&m.ID, &m.CompetitionID, &m.AreaID, &m.GradeID, &m.SpecialLevelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgModalityRepository.FindByID: %w", err)
	}
	return m, nil
}
