package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

// CatalogRepository reads the academic catalog. The catalog is seeded
// administratively and is read-only during registration.
type CatalogRepository interface {
	ListAreas(ctx context.Context) ([]model.Area, error)
	FindAreaByName(ctx context.Context, nombre string) (*model.Area, error)
	FindGradeByNumberCycle(ctx context.Context, numero int, ciclo model.Cycle) (*model.Grade, error)
	ListGradesByArea(ctx context.Context, areaID string) ([]model.Grade, error)
	ListSpecialLevelsByArea(ctx context.Context, areaID string) ([]model.SpecialLevel, error)
	FindSpecialLevelByName(ctx context.Context, areaID, nombreNivel string) (*model.SpecialLevel, error)

	ListDepartamentos(ctx context.Context) ([]model.Departamento, error)
	ListMunicipiosByDepartamento(ctx context.Context, codDept string) ([]model.Municipio, error)
	FindMunicipioByID(ctx context.Context, codMun string) (*model.Municipio, error)
}

type pgCatalogRepository struct {
	db *sql.DB
}

func NewPgCatalogRepository(db *sql.DB) CatalogRepository {
	return &pgCatalogRepository{db: db}
}

func (r *pgCatalogRepository) ListAreas(ctx context.Context) ([]model.Area, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cod_area, nombre_area FROM area ORDER BY nombre_area`)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListAreas: %w", err)
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.Nombre); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListAreas scan: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (r *pgCatalogRepository) FindAreaByName(ctx context.Context, nombre string) (*model.Area, error) {
	area := &model.Area{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_area, nombre_area FROM area WHERE nombre_area = $1`, nombre).
		Scan(&area.ID, &area.Nombre)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.FindAreaByName: %w", err)
	}
	return area, nil
}

func (r *pgCatalogRepository) FindGradeByNumberCycle(ctx context.Context, numero int, ciclo model.Cycle) (*model.Grade, error) {
	grade := &model.Grade{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_grado, numero, ciclo FROM grado WHERE numero = $1 AND ciclo = $2`, numero, ciclo).
		Scan(&grade.ID, &grade.Numero, &grade.Ciclo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.FindGradeByNumberCycle: %w", err)
	}
	return grade, nil
}

func (r *pgCatalogRepository) ListGradesByArea(ctx context.Context, areaID string) ([]model.Grade, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.cod_grado, g.numero, g.ciclo
		FROM grado g
		JOIN area_grado ag ON ag.cod_grado = g.cod_grado
		WHERE ag.cod_area = $1
		ORDER BY g.ciclo, g.numero`, areaID)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListGradesByArea: %w", err)
	}
	defer rows.Close()

	var grades []model.Grade
	for rows.Next() {
		var g model.Grade
		if err := rows.Scan(&g.ID, &g.Numero, &g.Ciclo); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListGradesByArea scan: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

func (r *pgCatalogRepository) ListSpecialLevelsByArea(ctx context.Context, areaID string) ([]model.SpecialLevel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cod_nivel, nombre_nivel, grado_range, cod_area
		 FROM nivel_especial WHERE cod_area = $1 ORDER BY nombre_nivel`, areaID)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListSpecialLevelsByArea: %w", err)
	}
	defer rows.Close()

	var levels []model.SpecialLevel
	for rows.Next() {
		var l model.SpecialLevel
		if err := rows.Scan(&l.ID, &l.Nombre, &l.GradoRange, &l.AreaID); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListSpecialLevelsByArea scan: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (r *pgCatalogRepository) FindSpecialLevelByName(ctx context.Context, areaID, nombreNivel string) (*model.SpecialLevel, error) {
	level := &model.SpecialLevel{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_nivel, nombre_nivel, grado_range, cod_area
		 FROM nivel_especial WHERE cod_area = $1 AND nombre_nivel = $2`, areaID, nombreNivel).
		Scan(&level.ID, &level.Nombre, &level.GradoRange, &level.AreaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.FindSpecialLevelByName: %w", err)
	}
	return level, nil
}

func (r *pgCatalogRepository) ListDepartamentos(ctx context.Context) ([]model.Departamento, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cod_dept, nombre_dept FROM departamento ORDER BY nombre_dept`)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListDepartamentos: %w", err)
	}
	defer rows.Close()

	var depts []model.Departamento
	for rows.Next() {
		var d model.Departamento
		if err := rows.Scan(&d.ID, &d.Nombre); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListDepartamentos scan: %w", err)
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (r *pgCatalogRepository) ListMunicipiosByDepartamento(ctx context.Context, codDept string) ([]model.Municipio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cod_mun, nombre_mun, cod_dept FROM municipio WHERE cod_dept = $1 ORDER BY nombre_mun`, codDept)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListMunicipiosByDepartamento: %w", err)
	}
	defer rows.Close()

	var munis []model.Municipio
	for rows.Next() {
		var m model.Municipio
		if err := rows.Scan(&m.ID, &m.Nombre, &m.CodDept); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListMunicipiosByDepartamento scan: %w", err)
		}
		munis = append(munis, m)
	}
	return munis, rows.Err()
}

func (r *pgCatalogRepository) FindMunicipioByID(ctx context.Context, codMun string) (*model.Municipio, error) {
	muni := &model.Municipio{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_mun, nombre_mun, cod_dept FROM municipio WHERE cod_mun = $1`, codMun).
		Scan(&muni.ID, &muni.Nombre, &muni.CodDept)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCatalogRepository.FindMunicipioByID: %w", err)
	}
	return muni, nil
}
