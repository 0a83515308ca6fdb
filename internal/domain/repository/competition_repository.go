package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

type CompetitionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, c *model.Competition) error
	Update(ctx context.Context, tx *sql.Tx, c *model.Competition) error
	FindByID(ctx context.Context, id string) (*model.Competition, error)
	FindActiveByGestion(ctx context.Context, gestion int) (*model.Competition, error)
	List(ctx context.Context) ([]model.Competition, error)
	ListNamesByPrefix(ctx context.Context, prefix string) ([]string, error)
	CountOverlapping(ctx context.Context, start, end time.Time, excludeID string) (int, error)

	UpsertStage(ctx context.Context, tx *sql.Tx, s *model.Stage) error
	ListStages(ctx context.Context, competitionID string) ([]model.Stage, error)
	ListStagesByCompetitionName(ctx context.Context, nombre string) ([]model.Stage, error)
}

type pgCompetitionRepository struct {
	db *sql.DB
}

func NewPgCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &pgCompetitionRepository{db: db}
}

const competitionColumns = `cod_compet, nombre_compet, slug, fecha_ini, fecha_fin, hora_ini_ins, hora_fin_ins, costo, gestion`

func scanCompetition(row *sql.Row) (*model.Competition, error) {
	c := &model.Competition{}
	err := row.Scan(&c.ID, &c.Nombre, &c.Slug, &c.FechaIni, &c.FechaFin, &c.HoraIniIns, &c.HoraFinIns, &c.Costo, &c.Gestion)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCompetitionRepository) Create(ctx context.Context, tx *sql.Tx, c *model.Competition) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO competencia (cod_compet, nombre_compet, slug, fecha_ini, fecha_fin, hora_ini_ins, hora_fin_ins, costo, gestion)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Nombre, c.Slug, c.FechaIni, c.FechaFin, c.HoraIniIns, c.HoraFinIns, c.Costo, c.Gestion)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("competencia with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCompetitionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCompetitionRepository) Update(ctx context.Context, tx *sql.Tx, c *model.Competition) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`UPDATE competencia SET nombre_compet = $1, slug = $2, fecha_ini = $3, fecha_fin = $4,
		        hora_ini_ins = $5, hora_fin_ins = $6, costo = $7
		 WHERE cod_compet = $8`,
		c.Nombre, c.Slug, c.FechaIni, c.FechaFin, c.HoraIniIns, c.HoraFinIns, c.Costo, c.ID)
	if err != nil {
		if common.IsUniqueViolation(err, "") {
			return fmt.Errorf("competencia with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCompetitionRepository.Update: %w", err)
	}
	return nil
}

func (r *pgCompetitionRepository) FindByID(ctx context.Context, id string) (*model.Competition, error) {
	c, err := scanCompetition(r.db.QueryRowContext(ctx,
		`SELECT `+competitionColumns+` FROM competencia WHERE cod_compet = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCompetitionRepository.FindByID: %w", err)
	}
	return c, nil
}

// FindActiveByGestion picks the competition of a management year; with
// several, the one created for the latest date range wins.
func (r *pgCompetitionRepository) FindActiveByGestion(ctx context.Context, gestion int) (*model.Competition, error) {
	c, err := scanCompetition(r.db.QueryRowContext(ctx,
		`SELECT `+competitionColumns+` FROM competencia WHERE gestion = $1 ORDER BY fecha_ini DESC LIMIT 1`, gestion))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCompetitionRepository.FindActiveByGestion: %w", err)
	}
	return c, nil
}

func (r *pgCompetitionRepository) List(ctx context.Context) ([]model.Competition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+competitionColumns+` FROM competencia ORDER BY gestion DESC, fecha_ini DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.List: %w", err)
	}
	defer rows.Close()

	var comps []model.Competition
	for rows.Next() {
		var c model.Competition
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Slug, &c.FechaIni, &c.FechaFin, &c.HoraIniIns, &c.HoraFinIns, &c.Costo, &c.Gestion); err != nil {
			return nil, fmt.Errorf("pgCompetitionRepository.List scan: %w", err)
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (r *pgCompetitionRepository) ListNamesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT nombre_compet FROM competencia WHERE nombre_compet LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.ListNamesByPrefix: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("pgCompetitionRepository.ListNamesByPrefix scan: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// CountOverlapping applies the interval test
// existingStart <= newEnd AND existingEnd >= newStart.
func (r *pgCompetitionRepository) CountOverlapping(ctx context.Context, start, end time.Time, excludeID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM competencia
		 WHERE fecha_ini <= $1 AND fecha_fin >= $2 AND cod_compet <> $3`,
		end, start, excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pgCompetitionRepository.CountOverlapping: %w", err)
	}
	return count, nil
}

// UpsertStage is keyed by (competition, stage name) so re-running a
// partially applied schedule converges instead of conflicting.
func (r *pgCompetitionRepository) UpsertStage(ctx context.Context, tx *sql.Tx, s *model.Stage) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO etapa_competencia (cod_etapa, cod_competencia, nombre_etapa, fecha_inicio, fecha_fin, orden, estado)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cod_competencia, nombre_etapa) DO UPDATE SET
		   fecha_inicio = EXCLUDED.fecha_inicio,
		   fecha_fin = EXCLUDED.fecha_fin,
		   orden = EXCLUDED.orden,
		   estado = EXCLUDED.estado`,
		s.ID, s.CompetitionID, s.NombreEtapa, s.FechaInicio, s.FechaFin, s.Orden, s.Estado)
	if err != nil {
		return fmt.Errorf("pgCompetitionRepository.UpsertStage: %w", err)
	}
	return nil
}

func (r *pgCompetitionRepository) ListStages(ctx context.Context, competitionID string) ([]model.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cod_etapa, cod_competencia, nombre_etapa, fecha_inicio, fecha_fin, orden, estado
		 FROM etapa_competencia WHERE cod_competencia = $1 ORDER BY orden ASC`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.ListStages: %w", err)
	}
	defer rows.Close()
	return collectStages(rows)
}

func (r *pgCompetitionRepository) ListStagesByCompetitionName(ctx context.Context, nombre string) ([]model.Stage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.cod_etapa, e.cod_competencia, e.nombre_etapa, e.fecha_inicio, e.fecha_fin, e.orden, e.estado
		 FROM etapa_competencia e
		 JOIN competencia c ON c.cod_compet = e.cod_competencia
		 WHERE c.nombre_compet = $1 ORDER BY e.orden ASC`, nombre)
	if err != nil {
		return nil, fmt.Errorf("pgCompetitionRepository.ListStagesByCompetitionName: %w", err)
	}
	defer rows.Close()
	return collectStages(rows)
}

func collectStages(rows *sql.Rows) ([]model.Stage, error) {
	var stages []model.Stage
	for rows.Next() {
		var s model.Stage
		if err := rows.Scan(&s.ID, &s.CompetitionID, &s.NombreEtapa, &s.FechaInicio, &s.FechaFin, &s.Orden, &s.Estado); err != nil {
			return nil, fmt.Errorf("collectStages scan: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
