package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"
	"olimpiada_backend/internal/platform/config"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// CompetitionService manages the yearly competition and its stage
// schedule. Names are generated per gestion, never supplied.
type CompetitionService struct {
	competitionRepo repository.CompetitionRepository
	db              *sql.DB
	now             func() time.Time
}

func NewCompetitionService(competitionRepo repository.CompetitionRepository, db *sql.DB) *CompetitionService {
	return &CompetitionService{competitionRepo: competitionRepo, db: db, now: time.Now}
}

type StageInput struct {
	Nombre      string `json:"nombre"`
	FechaInicio string `json:"fechaInicio"` // YYYY-MM-DD
	FechaFin    string `json:"fechaFin"`
}

type CreateCompetitionRequest struct {
	HoraIniIns string       `json:"horaIniIns"`
	HoraFinIns string       `json:"horaFinIns"`
	Costo      float64      `json:"costo"`
	Etapas     []StageInput `json:"etapas"`
}

type stageWindow struct {
	nombre string
	inicio time.Time
	fin    time.Time
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, common.Errorf("%s %q is not a valid date: %w", field, value, common.ErrValidation)
	}
	return t, nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, common.Errorf("%s %q is not a valid timestamp: %w", field, value, common.ErrValidation)
	}
	return t, nil
}

func (s *CompetitionService) parseStages(etapas []StageInput) ([]stageWindow, error) {
	if len(etapas) == 0 {
		return nil, common.Errorf("at least one etapa is required: %w", common.ErrValidation)
	}
	windows := make([]stageWindow, 0, len(etapas))
	for _, e := range etapas {
		if e.Nombre == "" {
			return nil, common.Errorf("every etapa needs a nombre: %w", common.ErrValidation)
		}
		inicio, err := parseDate("etapa fechaInicio", e.FechaInicio)
		if err != nil {
			return nil, err
		}
		fin, err := parseDate("etapa fechaFin", e.FechaFin)
		if err != nil {
			return nil, err
		}
		if fin.Before(inicio) {
			return nil, common.Errorf("etapa %q ends before it starts: %w", e.Nombre, common.ErrValidation)
		}
		windows = append(windows, stageWindow{nombre: e.Nombre, inicio: inicio, fin: fin})
	}

	// Stages share a competition window but never overlap each other.
	for i := range windows {
		for j := i + 1; j < len(windows); j++ {
			if !windows[i].inicio.After(windows[j].fin) && !windows[j].inicio.After(windows[i].fin) {
				return nil, common.Errorf("etapas %q and %q overlap: %w", windows[i].nombre, windows[j].nombre, common.ErrValidation)
			}
		}
	}
	return windows, nil
}

// scheduleWindow is the overall [first stage start, last stage end]
// range of a schedule.
func scheduleWindow(windows []stageWindow) (time.Time, time.Time) {
	ini, fin := windows[0].inicio, windows[0].fin
	for _, w := range windows[1:] {
		if w.inicio.Before(ini) {
			ini = w.inicio
		}
		if w.fin.After(fin) {
			fin = w.fin
		}
	}
	return ini, fin
}

// nextName generates "Competencia <gestion>" with a numeric suffix when
// earlier competitions of the gestion already took the base name.
func (s *CompetitionService) nextName(ctx context.Context, gestion int) (string, error) {
	base := fmt.Sprintf("Competencia %d", gestion)
	names, err := s.competitionRepo.ListNamesByPrefix(ctx, base)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return base, nil
	}

	max := 1
	for _, n := range names {
		suffix := strings.TrimPrefix(n, base)
		if suffix == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimPrefix(suffix, "-"))
		if err == nil && v > max {
			max = v
		}
	}
	return fmt.Sprintf("%s-%d", base, max+1), nil
}

// Create registers the competition and its full schedule in one
// transaction. The date window is derived from the schedule itself,
// first stage start through last stage end, and must not overlap any
// other competition.
func (s *CompetitionService) Create(ctx context.Context, req CreateCompetitionRequest) (*model.Competition, error) {
	horaIniIns, err := parseTimestamp("horaIniIns", req.HoraIniIns)
	if err != nil {
		return nil, err
	}
	horaFinIns, err := parseTimestamp("horaFinIns", req.HoraFinIns)
	if err != nil {
		return nil, err
	}
	if horaFinIns.Before(horaIniIns) {
		return nil, common.Errorf("horaFinIns is before horaIniIns: %w", common.ErrValidation)
	}
	if req.Costo < 0 {
		return nil, common.Errorf("costo must not be negative: %w", common.ErrValidation)
	}
	if req.Costo == 0 {
		req.Costo = config.AppConfig.DefaultCompetitionCost
	}
	windows, err := s.parseStages(req.Etapas)
	if err != nil {
		return nil, err
	}
	fechaIni, fechaFin := scheduleWindow(windows)

	overlapping, err := s.competitionRepo.CountOverlapping(ctx, fechaIni, fechaFin, "")
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, common.Errorf("another competencia already covers %s to %s: %w",
			fechaIni.Format("2006-01-02"), fechaFin.Format("2006-01-02"), common.ErrConflict)
	}

	gestion := fechaIni.Year()
	nombre, err := s.nextName(ctx, gestion)
	if err != nil {
		return nil, err
	}

	competition := &model.Competition{
		ID:         uuid.NewString(),
		Nombre:     nombre,
		Slug:       slug.Make(nombre),
		FechaIni:   fechaIni,
		FechaFin:   fechaFin,
		HoraIniIns: horaIniIns,
		HoraFinIns: horaFinIns,
		Costo:      req.Costo,
		Gestion:    gestion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.createTx(ctx, tx, competition, windows); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return competition, nil
}

// createTx is the transactional body of Create.
func (s *CompetitionService) createTx(ctx context.Context, tx *sql.Tx, competition *model.Competition, windows []stageWindow) error {
	if err := s.competitionRepo.Create(ctx, tx, competition); err != nil {
		return err
	}
	for i, w := range windows {
		stage := &model.Stage{
			ID:            uuid.NewString(),
			CompetitionID: competition.ID,
			NombreEtapa:   w.nombre,
			FechaInicio:   w.inicio,
			FechaFin:      w.fin,
			Orden:         i + 1,
			Estado:        model.EtapaEstadoActivo,
		}
		if err := s.competitionRepo.UpsertStage(ctx, tx, stage); err != nil {
			return err
		}
		competition.Etapas = append(competition.Etapas, *stage)
	}
	return nil
}

type UpdateCompetitionRequest struct {
	Nombre     *string  `json:"nombre,omitempty"`
	FechaIni   *string  `json:"fechaIni,omitempty"`
	FechaFin   *string  `json:"fechaFin,omitempty"`
	HoraIniIns *string  `json:"horaIniIns,omitempty"`
	HoraFinIns *string  `json:"horaFinIns,omitempty"`
	Costo      *float64 `json:"costo,omitempty"`

	Etapas *[]StageInput `json:"etapas,omitempty"`
}

type UpdateCompetitionResponse struct {
	Competencia       *model.Competition `json:"competencia"`
	PuedeEditarFechas bool               `json:"puedeEditarFechas"`
}

// Update edits a competition. Once any stage has started (its
// fecha_inicio is today or earlier) the dates are frozen and only cost
// and registration hours may change.
func (s *CompetitionService) Update(ctx context.Context, id string, req UpdateCompetitionRequest) (*UpdateCompetitionResponse, error) {
	competition, err := s.competitionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("competencia %q not found: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	stages, err := s.competitionRepo.ListStages(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	puedeEditarFechas := true
	for _, st := range stages {
		if !st.FechaInicio.After(today) {
			puedeEditarFechas = false
			break
		}
	}

	if (req.FechaIni != nil || req.FechaFin != nil || req.Etapas != nil) && !puedeEditarFechas {
		return nil, common.Errorf("competencia dates are locked once a stage has started: %w", common.ErrValidation)
	}

	var windows []stageWindow
	if req.Etapas != nil {
		if req.FechaIni != nil || req.FechaFin != nil {
			return nil, common.Errorf("competencia dates are derived from the etapas; submit one or the other: %w", common.ErrValidation)
		}
		windows, err = s.parseStages(*req.Etapas)
		if err != nil {
			return nil, err
		}
		competition.FechaIni, competition.FechaFin = scheduleWindow(windows)
	}

	if req.FechaIni != nil {
		fechaIni, err := parseDate("fechaIni", *req.FechaIni)
		if err != nil {
			return nil, err
		}
		competition.FechaIni = fechaIni
	}
	if req.FechaFin != nil {
		fechaFin, err := parseDate("fechaFin", *req.FechaFin)
		if err != nil {
			return nil, err
		}
		competition.FechaFin = fechaFin
	}
	if competition.FechaFin.Before(competition.FechaIni) {
		return nil, common.Errorf("fechaFin is before fechaIni: %w", common.ErrValidation)
	}
	if req.FechaIni != nil || req.FechaFin != nil {
		// The window must still contain the whole schedule.
		for _, st := range stages {
			if st.FechaInicio.Before(competition.FechaIni) || st.FechaFin.After(competition.FechaFin) {
				return nil, common.Errorf("etapa %q falls outside the competencia window: %w", st.NombreEtapa, common.ErrValidation)
			}
		}
	}
	if req.FechaIni != nil || req.FechaFin != nil || req.Etapas != nil {
		overlapping, err := s.competitionRepo.CountOverlapping(ctx, competition.FechaIni, competition.FechaFin, competition.ID)
		if err != nil {
			return nil, err
		}
		if overlapping > 0 {
			return nil, common.Errorf("another competencia already covers that window: %w", common.ErrConflict)
		}
	}

	if req.Nombre != nil {
		if *req.Nombre == "" {
			return nil, common.Errorf("nombre must not be empty: %w", common.ErrValidation)
		}
		competition.Nombre = *req.Nombre
		competition.Slug = slug.Make(*req.Nombre)
	}
	if req.HoraIniIns != nil {
		horaIniIns, err := parseTimestamp("horaIniIns", *req.HoraIniIns)
		if err != nil {
			return nil, err
		}
		competition.HoraIniIns = horaIniIns
	}
	if req.HoraFinIns != nil {
		horaFinIns, err := parseTimestamp("horaFinIns", *req.HoraFinIns)
		if err != nil {
			return nil, err
		}
		competition.HoraFinIns = horaFinIns
	}
	if req.Costo != nil {
		if *req.Costo < 0 {
			return nil, common.Errorf("costo must not be negative: %w", common.ErrValidation)
		}
		competition.Costo = *req.Costo
	}

	if err := s.competitionRepo.Update(ctx, nil, competition); err != nil {
		return nil, err
	}

	// Stage rows are keyed by (competencia, nombre), so resubmitting a
	// schedule rewrites existing stages in place.
	if req.Etapas != nil {
		for i, w := range windows {
			stage := &model.Stage{
				ID:            uuid.NewString(),
				CompetitionID: competition.ID,
				NombreEtapa:   w.nombre,
				FechaInicio:   w.inicio,
				FechaFin:      w.fin,
				Orden:         i + 1,
				Estado:        model.EtapaEstadoActivo,
			}
			if err := s.competitionRepo.UpsertStage(ctx, nil, stage); err != nil {
				return nil, err
			}
		}
		stages, err = s.competitionRepo.ListStages(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	competition.Etapas = stages
	return &UpdateCompetitionResponse{Competencia: competition, PuedeEditarFechas: puedeEditarFechas}, nil
}

func (s *CompetitionService) List(ctx context.Context) ([]model.Competition, error) {
	comps, err := s.competitionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range comps {
		stages, err := s.competitionRepo.ListStages(ctx, comps[i].ID)
		if err != nil {
			return nil, err
		}
		comps[i].Etapas = stages
	}
	return comps, nil
}

func (s *CompetitionService) Get(ctx context.Context, id string) (*model.Competition, error) {
	competition, err := s.competitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stages, err := s.competitionRepo.ListStages(ctx, id)
	if err != nil {
		return nil, err
	}
	competition.Etapas = stages
	return competition, nil
}

// NameAvailable reports whether no competition already uses the name.
func (s *CompetitionService) NameAvailable(ctx context.Context, nombre string) (bool, error) {
	if nombre == "" {
		return false, common.Errorf("nombre must not be empty: %w", common.ErrValidation)
	}
	names, err := s.competitionRepo.ListNamesByPrefix(ctx, nombre)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == nombre {
			return false, nil
		}
	}
	return true, nil
}

// StagesByName serves the public schedule lookup by competition name.
func (s *CompetitionService) StagesByName(ctx context.Context, nombre string) ([]model.Stage, error) {
	stages, err := s.competitionRepo.ListStagesByCompetitionName(ctx, nombre)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, common.Errorf("competencia %q has no etapas: %w", nombre, common.ErrNotFound)
	}
	return stages, nil
}
