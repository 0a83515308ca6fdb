package database

import (
	"database/sql"
	"log"
)

// EnsureSchema applies the relational schema on startup. Uniqueness
// constraints here back the find-or-create paths: a concurrent insert
// of the same modality loses on the partial unique indexes and the
// caller re-reads the surviving row.
func EnsureSchema(db *sql.DB) error {
	log.Println("Ensuring database schema...")
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Schema statement failed: %v", err)
			return err
		}
	}
	log.Println("Database schema is up to date")
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS departamento (
		cod_dept   TEXT PRIMARY KEY,
		nombre_dept TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS municipio (
		cod_mun    TEXT PRIMARY KEY,
		nombre_mun TEXT NOT NULL,
		cod_dept   TEXT NOT NULL REFERENCES departamento(cod_dept)
	)`,
	`CREATE TABLE IF NOT EXISTS area (
		cod_area    TEXT PRIMARY KEY,
		nombre_area TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS grado (
		cod_grado TEXT PRIMARY KEY,
		numero    INT  NOT NULL,
		ciclo     TEXT NOT NULL,
		UNIQUE (numero, ciclo)
	)`,
	`CREATE TABLE IF NOT EXISTS area_grado (
		cod_area  TEXT NOT NULL REFERENCES area(cod_area),
		cod_grado TEXT NOT NULL REFERENCES grado(cod_grado),
		PRIMARY KEY (cod_area, cod_grado)
	)`,
	`CREATE TABLE IF NOT EXISTS nivel_especial (
		cod_nivel    TEXT PRIMARY KEY,
		nombre_nivel TEXT NOT NULL UNIQUE,
		grado_range  TEXT NOT NULL,
		cod_area     TEXT NOT NULL REFERENCES area(cod_area)
	)`,
	`CREATE TABLE IF NOT EXISTS competencia (
		cod_compet    TEXT PRIMARY KEY,
		nombre_compet TEXT NOT NULL UNIQUE,
		slug          TEXT NOT NULL UNIQUE,
		fecha_ini     DATE NOT NULL,
		fecha_fin     DATE NOT NULL,
		hora_ini_ins  TIMESTAMPTZ NOT NULL,
		hora_fin_ins  TIMESTAMPTZ NOT NULL,
		costo         DOUBLE PRECISION NOT NULL,
		gestion       INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS etapa_competencia (
		cod_etapa       TEXT PRIMARY KEY,
		cod_competencia TEXT NOT NULL REFERENCES competencia(cod_compet),
		nombre_etapa    TEXT NOT NULL,
		fecha_inicio    TIMESTAMPTZ NOT NULL,
		fecha_fin       TIMESTAMPTZ NOT NULL,
		orden           INT NOT NULL,
		estado          TEXT NOT NULL,
		UNIQUE (cod_competencia, nombre_etapa)
	)`,
	`CREATE TABLE IF NOT EXISTS modalidad_competencia (
		cod_modal          TEXT PRIMARY KEY,
		cod_compet         TEXT NOT NULL REFERENCES competencia(cod_compet),
		cod_area           TEXT NOT NULL REFERENCES area(cod_area),
		cod_grado          TEXT REFERENCES grado(cod_grado),
		cod_nivel_especial TEXT REFERENCES nivel_especial(cod_nivel),
		CHECK ((cod_grado IS NULL) <> (cod_nivel_especial IS NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS modalidad_grado_uniq
		ON modalidad_competencia (cod_compet, cod_area, cod_grado)
		WHERE cod_grado IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS modalidad_nivel_uniq
		ON modalidad_competencia (cod_compet, cod_area, cod_nivel_especial)
		WHERE cod_nivel_especial IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS persona (
		cod_per          TEXT PRIMARY KEY,
		nombre           TEXT NOT NULL,
		apellido_paterno TEXT NOT NULL,
		apellido_materno TEXT,
		carnet           TEXT NOT NULL UNIQUE,
		email            TEXT NOT NULL UNIQUE,
		celular          TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS user_n (
		cod_user_n TEXT PRIMARY KEY,
		cod_per    TEXT NOT NULL UNIQUE REFERENCES persona(cod_per),
		passw_user TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rol (
		cod_rol    TEXT PRIMARY KEY,
		nombre_rol TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_n_rol (
		cod_user_n TEXT NOT NULL REFERENCES user_n(cod_user_n),
		cod_rol    TEXT NOT NULL REFERENCES rol(cod_rol),
		PRIMARY KEY (cod_user_n, cod_rol)
	)`,
	`CREATE TABLE IF NOT EXISTS tutor (
		cod_tut     TEXT PRIMARY KEY,
		cod_per     TEXT NOT NULL UNIQUE REFERENCES persona(cod_per),
		institucion TEXT NOT NULL,
		cod_mun     TEXT NOT NULL REFERENCES municipio(cod_mun),
		cod_area    TEXT REFERENCES area(cod_area)
	)`,
	`CREATE TABLE IF NOT EXISTS competidor (
		cod_comp  TEXT PRIMARY KEY,
		cod_per   TEXT NOT NULL UNIQUE REFERENCES persona(cod_per),
		fecha_nac DATE NOT NULL,
		cod_mun   TEXT NOT NULL REFERENCES municipio(cod_mun),
		colegio   TEXT NOT NULL,
		grado     TEXT NOT NULL,
		nivel     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inscripcion (
		cod_ins            TEXT PRIMARY KEY,
		cod_comp           TEXT NOT NULL REFERENCES competidor(cod_comp),
		cod_tutor          TEXT NOT NULL REFERENCES tutor(cod_tut),
		cod_compet         TEXT NOT NULL REFERENCES competencia(cod_compet),
		cod_modal          TEXT NOT NULL REFERENCES modalidad_competencia(cod_modal),
		estado_inscripcion TEXT NOT NULL,
		motivo_rechazo     TEXT,
		fecha_inscripcion  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pago (
		cod_pago    TEXT PRIMARY KEY,
		cod_ins     TEXT NOT NULL REFERENCES inscripcion(cod_ins),
		monto       DOUBLE PRECISION NOT NULL,
		estado_pago TEXT NOT NULL
	)`,
	// The role catalog is fixed; accounts are attached to roles by name.
	`INSERT INTO rol (cod_rol, nombre_rol) VALUES
		('rol-administrador', 'Administrador'),
		('rol-cajero', 'Cajero'),
		('rol-tutor', 'Tutor'),
		('rol-competidor', 'Competidor')
	ON CONFLICT (nombre_rol) DO NOTHING`,
}
