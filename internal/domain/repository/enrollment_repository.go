package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error
	CreatePayment(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	FindEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, tx *sql.Tx, id string, estado model.EnrollmentStatus, motivo *string) error

	ListByTutor(ctx context.Context, tutorID string) ([]model.CompetitorRow, error)
	CountByStatusForTutor(ctx context.Context, tutorID string) ([]model.StatusCount, error)
	ListByPaymentStatus(ctx context.Context, estadoPago model.PaymentStatus) ([]model.CompetitorRow, error)
	PaymentStats(ctx context.Context) (*model.PaymentStats, error)
	MarkPaymentsPaid(ctx context.Context, enrollmentID string) (int64, error)
	ListAreasByPerson(ctx context.Context, personID string) ([]model.Area, error)
}

type pgEnrollmentRepository struct {
	db *sql.DB
}

func NewPgEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &pgEnrollmentRepository{db: db}
}

func (r *pgEnrollmentRepository) CreateEnrollment(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO inscripcion (cod_ins, cod_comp, cod_tutor, cod_compet, cod_modal, estado_inscripcion, motivo_rechazo, fecha_inscripcion)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.CompetitorID, e.TutorID, e.CompetitionID, e.ModalityID, e.Estado, e.MotivoRechazo, e.FechaInscripcion)
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.CreateEnrollment: %w", err)
	}
	return nil
}

func (r *pgEnrollmentRepository) CreatePayment(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	_, err := orDB(r.db, tx).ExecContext(ctx,
		`INSERT INTO pago (cod_pago, cod_ins, monto, estado_pago) VALUES ($1, $2, $3, $4)`,
		p.ID, p.EnrollmentID, p.Monto, p.Estado)
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.CreatePayment: %w", err)
	}
	return nil
}

func (r *pgEnrollmentRepository) FindEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT cod_ins, cod_comp, cod_tutor, cod_compet, cod_modal, estado_inscripcion, motivo_rechazo, fecha_inscripcion
		 FROM inscripcion WHERE cod_ins = $1`, id).
		Scan(&e.ID, &e.CompetitorID, &e.TutorID, &e.CompetitionID, &e.ModalityID, &e.Estado, &e.MotivoRechazo, &e.FechaInscripcion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEnrollmentRepository.FindEnrollmentByID: %w", err)
	}
	return e, nil
}

func (r *pgEnrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, tx *sql.Tx, id string, estado model.EnrollmentStatus, motivo *string) error {
	res, err := orDB(r.db, tx).ExecContext(ctx,
		`UPDATE inscripcion SET estado_inscripcion = $1, motivo_rechazo = $2 WHERE cod_ins = $3`,
		estado, motivo, id)
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.UpdateEnrollmentStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgEnrollmentRepository.UpdateEnrollmentStatus rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

const competitorRowSelect = `
	SELECT i.cod_ins, comp.cod_comp, p.nombre, p.apellido_paterno, p.carnet, comp.colegio,
	       ne.grado_range, i.estado_inscripcion, i.fecha_inscripcion, a.nombre_area
	FROM inscripcion i
	JOIN competidor comp ON comp.cod_comp = i.cod_comp
	JOIN persona p ON p.cod_per = comp.cod_per
	JOIN modalidad_competencia m ON m.cod_modal = i.cod_modal
	JOIN area a ON a.cod_area = m.cod_area
	LEFT JOIN nivel_especial ne ON ne.cod_nivel = m.cod_nivel_especial`

func (r *pgEnrollmentRepository) ListByTutor(ctx context.Context, tutorID string) ([]model.CompetitorRow, error) {
	rows, err := r.db.QueryContext(ctx,
		competitorRowSelect+` WHERE i.cod_tutor = $1 ORDER BY i.fecha_inscripcion DESC`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListByTutor: %w", err)
	}
	defer rows.Close()

	var out []model.CompetitorRow
	for rows.Next() {
		var row model.CompetitorRow
		if err := rows.Scan(&row.CodIns, &row.CodComp, &row.Nombre, &row.ApellidoPaterno, &row.Carnet,
			&row.Colegio, &row.GradoRange, &row.Estado, &row.FechaInscripcion, &row.Area); err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.ListByTutor scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountByStatusForTutor always reports the Pendiente, Aceptado and
// Rechazado buckets, zero-filled when a status has no enrollments.
func (r *pgEnrollmentRepository) CountByStatusForTutor(ctx context.Context, tutorID string) ([]model.StatusCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT estado_inscripcion, COUNT(*) FROM inscripcion WHERE cod_tutor = $1 GROUP BY estado_inscripcion`,
		tutorID)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.CountByStatusForTutor: %w", err)
	}
	defer rows.Close()

	counts := map[model.EnrollmentStatus]int{}
	for rows.Next() {
		var estado model.EnrollmentStatus
		var total int
		if err := rows.Scan(&estado, &total); err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.CountByStatusForTutor scan: %w", err)
		}
		counts[estado] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.StatusCount, 0, 3)
	for _, estado := range []model.EnrollmentStatus{model.EstadoPendiente, model.EstadoAceptado, model.EstadoRechazado} {
		out = append(out, model.StatusCount{Estado: estado, Total: counts[estado]})
	}
	return out, nil
}

// ListByPaymentStatus feeds the cashier views: reviewed enrollments
// (Verificado or Aceptado) joined with their payment in a given state.
func (r *pgEnrollmentRepository) ListByPaymentStatus(ctx context.Context, estadoPago model.PaymentStatus) ([]model.CompetitorRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.cod_ins, comp.cod_comp, p.nombre, p.apellido_paterno, p.carnet, comp.colegio,
		       ne.grado_range, i.estado_inscripcion, i.fecha_inscripcion, a.nombre_area,
		       pg.monto, pg.estado_pago
		FROM inscripcion i
		JOIN competidor comp ON comp.cod_comp = i.cod_comp
		JOIN persona p ON p.cod_per = comp.cod_per
		JOIN modalidad_competencia m ON m.cod_modal = i.cod_modal
		JOIN area a ON a.cod_area = m.cod_area
		JOIN pago pg ON pg.cod_ins = i.cod_ins
		LEFT JOIN nivel_especial ne ON ne.cod_nivel = m.cod_nivel_especial
		WHERE i.estado_inscripcion IN ($1, $2) AND pg.estado_pago = $3
		ORDER BY i.fecha_inscripcion DESC`,
		model.EstadoVerificado, model.EstadoAceptado, estadoPago)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListByPaymentStatus: %w", err)
	}
	defer rows.Close()

	var out []model.CompetitorRow
	for rows.Next() {
		var row model.CompetitorRow
		if err := rows.Scan(&row.CodIns, &row.CodComp, &row.Nombre, &row.ApellidoPaterno, &row.Carnet,
			&row.Colegio, &row.GradoRange, &row.Estado, &row.FechaInscripcion, &row.Area,
			&row.Monto, &row.EstadoPago); err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.ListByPaymentStatus scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *pgEnrollmentRepository) PaymentStats(ctx context.Context) (*model.PaymentStats, error) {
	stats := &model.PaymentStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE estado_pago = $1),
		       COALESCE(SUM(monto) FILTER (WHERE estado_pago = $1), 0)
		FROM pago`, model.PagoPagado).
		Scan(&stats.TotalRegistros, &stats.PagosExitosos, &stats.TotalRecaudado)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.PaymentStats: %w", err)
	}
	return stats, nil
}

func (r *pgEnrollmentRepository) MarkPaymentsPaid(ctx context.Context, enrollmentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pago SET estado_pago = $1 WHERE cod_ins = $2`, model.PagoPagado, enrollmentID)
	if err != nil {
		return 0, fmt.Errorf("pgEnrollmentRepository.MarkPaymentsPaid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgEnrollmentRepository.MarkPaymentsPaid rows affected: %w", err)
	}
	return affected, nil
}

func (r *pgEnrollmentRepository) ListAreasByPerson(ctx context.Context, personID string) ([]model.Area, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT a.cod_area, a.nombre_area
		FROM inscripcion i
		JOIN competidor c ON c.cod_comp = i.cod_comp
		JOIN modalidad_competencia m ON m.cod_modal = i.cod_modal
		JOIN area a ON a.cod_area = m.cod_area
		WHERE c.cod_per = $1
		ORDER BY a.nombre_area`, personID)
	if err != nil {
		return nil, fmt.Errorf("pgEnrollmentRepository.ListAreasByPerson: %w", err)
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.Nombre); err != nil {
			return nil, fmt.Errorf("pgEnrollmentRepository.ListAreasByPerson scan: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
