package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"

	"github.com/google/uuid"
)

// ModalityService resolves a level descriptor against the academic
// catalog into the unique modality row for a competition and area,
// creating the row on demand.
type ModalityService struct {
	catalogRepo  repository.CatalogRepository
	modalityRepo repository.ModalityRepository
}

func NewModalityService(catalogRepo repository.CatalogRepository, modalityRepo repository.ModalityRepository) *ModalityService {
	return &ModalityService{catalogRepo: catalogRepo, modalityRepo: modalityRepo}
}

// Regular descriptors look like "3ro Primaria" or "1ro de Secundaria";
// the ordinal suffix varies freely in historical data.
var regularLevelRe = regexp.MustCompile(`(?i)^\s*(\d+)\s*(?:ro|do|to|mo|vo|no|er|°)?\.?\s*(?:de\s+)?(primaria|secundaria)\s*$`)

// ParseRegularLevel extracts (numero, ciclo) from a regular level
// descriptor. ok is false for special-level labels.
func ParseRegularLevel(descriptor string) (int, model.Cycle, bool) {
	m := regularLevelRe.FindStringSubmatch(descriptor)
	if m == nil {
		return 0, "", false
	}
	numero, err := strconv.Atoi(m[1])
	if err != nil || numero <= 0 {
		return 0, "", false
	}
	ciclo := model.CicloPrimaria
	if strings.EqualFold(m[2], "secundaria") {
		ciclo = model.CicloSecundaria
	}
	return numero, ciclo, true
}

// Resolve maps (competition, area, descriptor) to its modality. Regular
// descriptors go through the grade catalog; anything else falls back to
// the area's special levels, matched by exact name first, then by
// case-insensitive name or range-substring when exactly one candidate
// fits. Both paths find-or-create the modality row.
func (s *ModalityService) Resolve(ctx context.Context, tx *sql.Tx, competitionID, areaID, descriptor string) (*model.Modality, error) {
	if numero, ciclo, ok := ParseRegularLevel(descriptor); ok {
		grade, err := s.catalogRepo.FindGradeByNumberCycle(ctx, numero, ciclo)
		if err == nil {
			return s.findOrCreate(ctx, tx, &model.Modality{
				ID:            uuid.NewString(),
				CompetitionID: competitionID,
				AreaID:        areaID,
				GradeID:       &grade.ID,
			})
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		// No such grade in the catalog: the descriptor may still name a
		// special level whose label happens to start with a digit.
	}

	level, err := s.resolveSpecialLevel(ctx, areaID, descriptor)
	if err != nil {
		return nil, err
	}
	return s.findOrCreate(ctx, tx, &model.Modality{
		ID:             uuid.NewString(),
		CompetitionID:  competitionID,
		AreaID:         areaID,
		SpecialLevelID: &level.ID,
	})
}

func (s *ModalityService) resolveSpecialLevel(ctx context.Context, areaID, descriptor string) (*model.SpecialLevel, error) {
	level, err := s.catalogRepo.FindSpecialLevelByName(ctx, areaID, descriptor)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	levels, err := s.catalogRepo.ListSpecialLevelsByArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	var candidates []model.SpecialLevel
	lowered := strings.ToLower(strings.TrimSpace(descriptor))
	for _, l := range levels {
		if strings.EqualFold(l.Nombre, lowered) ||
			strings.Contains(strings.ToLower(l.GradoRange), lowered) {
			candidates = append(candidates, l)
		}
	}

	switch len(candidates) {
	case 1:
		return &candidates[0], nil
	case 0:
		return nil, common.Errorf("no modality resolvable for level %q in area %s: %w", descriptor, areaID, common.ErrNotFound)
	default:
		return nil, common.Errorf("level %q matches %d special levels in area %s: %w", descriptor, len(candidates), areaID, common.ErrConflict)
	}
}

// findOrCreate returns the existing modality for m's key, or inserts
// it. A concurrent insert of the same key loses on the unique index and
// is resolved by one re-read.
func (s *ModalityService) findOrCreate(ctx context.Context, tx *sql.Tx, m *model.Modality) (*model.Modality, error) {
	existing, err := s.find(ctx, tx, m)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if err := s.modalityRepo.Create(ctx, tx, m); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return s.find(ctx, tx, m)
		}
		return nil, err
	}
	return m, nil
}

func (s *ModalityService) find(ctx context.Context, tx *sql.Tx, m *model.Modality) (*model.Modality, error) {
	if m.GradeID != nil {
		return s.modalityRepo.FindByGrade(ctx, tx, m.CompetitionID, m.AreaID, *m.GradeID)
	}
	return s.modalityRepo.FindBySpecialLevel(ctx, tx, m.CompetitionID, m.AreaID, *m.SpecialLevelID)
}
