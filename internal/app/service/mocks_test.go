package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
)

// In-memory fakes for the repository interfaces. They ignore the tx
// argument; transactional behavior is exercised against a real
// database, these cover the service logic.

type fakeCatalogRepo struct {
	areas  map[string]model.Area           // by nombre
	grades map[string]model.Grade          // by "numero|ciclo"
	levels map[string][]model.SpecialLevel // by areaID
	munis  map[string]model.Municipio
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		areas:  map[string]model.Area{},
		grades: map[string]model.Grade{},
		levels: map[string][]model.SpecialLevel{},
		munis:  map[string]model.Municipio{},
	}
}

func gradeKey(numero int, ciclo model.Cycle) string {
	return fmt.Sprintf("%d|%s", numero, ciclo)
}

func (f *fakeCatalogRepo) addGrade(id string, numero int, ciclo model.Cycle) {
	f.grades[gradeKey(numero, ciclo)] = model.Grade{ID: id, Numero: numero, Ciclo: ciclo}
}

func (f *fakeCatalogRepo) ListAreas(ctx context.Context) ([]model.Area, error) {
	var out []model.Area
	for _, a := range f.areas {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeCatalogRepo) FindAreaByName(ctx context.Context, nombre string) (*model.Area, error) {
	if a, ok := f.areas[nombre]; ok {
		return &a, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalogRepo) FindGradeByNumberCycle(ctx context.Context, numero int, ciclo model.Cycle) (*model.Grade, error) {
	if g, ok := f.grades[gradeKey(numero, ciclo)]; ok {
		return &g, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalogRepo) ListGradesByArea(ctx context.Context, areaID string) ([]model.Grade, error) {
	var out []model.Grade
	for _, g := range f.grades {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeCatalogRepo) ListSpecialLevelsByArea(ctx context.Context, areaID string) ([]model.SpecialLevel, error) {
	return f.levels[areaID], nil
}

func (f *fakeCatalogRepo) FindSpecialLevelByName(ctx context.Context, areaID, nombreNivel string) (*model.SpecialLevel, error) {
	for _, l := range f.levels[areaID] {
		if l.Nombre == nombreNivel {
			return &l, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalogRepo) ListDepartamentos(ctx context.Context) ([]model.Departamento, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListMunicipiosByDepartamento(ctx context.Context, codDept string) ([]model.Municipio, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) FindMunicipioByID(ctx context.Context, codMun string) (*model.Municipio, error) {
	if m, ok := f.munis[codMun]; ok {
		return &m, nil
	}
	return nil, common.ErrNotFound
}

type fakeModalityRepo struct {
	byGrade map[string]model.Modality
	byLevel map[string]model.Modality
	// raceOnCreate simulates losing a concurrent insert: the competing
	// row appears in the store and Create reports a conflict.
	raceOnCreate *model.Modality
	creates      int
}

func newFakeModalityRepo() *fakeModalityRepo {
	return &fakeModalityRepo{byGrade: map[string]model.Modality{}, byLevel: map[string]model.Modality{}}
}

func modalityKey(competitionID, areaID, ref string) string {
	return competitionID + "|" + areaID + "|" + ref
}

func (f *fakeModalityRepo) FindByGrade(ctx context.Context, tx *sql.Tx, competitionID, areaID, gradeID string) (*model.Modality, error) {
	if m, ok := f.byGrade[modalityKey(competitionID, areaID, gradeID)]; ok {
		return &m, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeModalityRepo) FindBySpecialLevel(ctx context.Context, tx *sql.Tx, competitionID, areaID, specialLevelID string) (*model.Modality, error) {
	if m, ok := f.byLevel[modalityKey(competitionID, areaID, specialLevelID)]; ok {
		return &m, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeModalityRepo) Create(ctx context.Context, tx *sql.Tx, m *model.Modality) error {
	f.creates++
	if f.raceOnCreate != nil {
		winner := *f.raceOnCreate
		f.store(winner)
		f.raceOnCreate = nil
		return common.ErrConflict
	}
	f.store(*m)
	return nil
}

func (f *fakeModalityRepo) store(m model.Modality) {
	if m.GradeID != nil {
		f.byGrade[modalityKey(m.CompetitionID, m.AreaID, *m.GradeID)] = m
	} else if m.SpecialLevelID != nil {
		f.byLevel[modalityKey(m.CompetitionID, m.AreaID, *m.SpecialLevelID)] = m
	}
}

func (f *fakeModalityRepo) FindByID(ctx context.Context, id string) (*model.Modality, error) {
	for _, m := range f.byGrade {
		if m.ID == id {
			return &m, nil
		}
	}
	for _, m := range f.byLevel {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakePersonRepo struct {
	personsByEmail map[string]model.Person
	usersByPerson  map[string]model.User
	rolesByName    map[string]model.Role
	rolesAttached  map[string]string // userID -> roleID
	tutorsByID     map[string]model.Tutor
	tutorsByPerson map[string]model.Tutor
	competitors    map[string]model.Competitor // by personID
	personUpdates  int
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{
		personsByEmail: map[string]model.Person{},
		usersByPerson:  map[string]model.User{},
		rolesByName:    map[string]model.Role{},
		rolesAttached:  map[string]string{},
		tutorsByID:     map[string]model.Tutor{},
		tutorsByPerson: map[string]model.Tutor{},
		competitors:    map[string]model.Competitor{},
	}
}

func (f *fakePersonRepo) FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.Person, error) {
	if p, ok := f.personsByEmail[email]; ok {
		return &p, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) FindByID(ctx context.Context, id string) (*model.Person, error) {
	for _, p := range f.personsByEmail {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) FindByNombre(ctx context.Context, nombre string) (*model.Person, error) {
	for _, p := range f.personsByEmail {
		if p.Nombre == nombre {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) Create(ctx context.Context, tx *sql.Tx, p *model.Person) error {
	if _, ok := f.personsByEmail[p.Email]; ok {
		return common.ErrConflict
	}
	f.personsByEmail[p.Email] = *p
	return nil
}

func (f *fakePersonRepo) Update(ctx context.Context, tx *sql.Tx, p *model.Person) error {
	f.personUpdates++
	f.personsByEmail[p.Email] = *p
	return nil
}

func (f *fakePersonRepo) FindUserByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.User, error) {
	if u, ok := f.usersByPerson[personID]; ok {
		return &u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) CreateUser(ctx context.Context, tx *sql.Tx, u *model.User) error {
	f.usersByPerson[u.PersonID] = *u
	return nil
}

func (f *fakePersonRepo) FindRoleByName(ctx context.Context, nombreRol string) (*model.Role, error) {
	if r, ok := f.rolesByName[nombreRol]; ok {
		return &r, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) FindRoleForPerson(ctx context.Context, personID string) (*model.Role, error) {
	u, ok := f.usersByPerson[personID]
	if !ok {
		return nil, common.ErrNotFound
	}
	roleID, ok := f.rolesAttached[u.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	for _, r := range f.rolesByName {
		if r.ID == roleID {
			return &r, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) AttachRole(ctx context.Context, tx *sql.Tx, userID, roleID string) error {
	f.rolesAttached[userID] = roleID
	return nil
}

func (f *fakePersonRepo) FindTutorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Tutor, error) {
	if t, ok := f.tutorsByPerson[personID]; ok {
		return &t, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) FindTutorByID(ctx context.Context, tutorID string) (*model.Tutor, error) {
	if t, ok := f.tutorsByID[tutorID]; ok {
		return &t, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) CreateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error {
	f.tutorsByID[t.ID] = *t
	f.tutorsByPerson[t.PersonID] = *t
	return nil
}

func (f *fakePersonRepo) UpdateTutor(ctx context.Context, tx *sql.Tx, t *model.Tutor) error {
	f.tutorsByID[t.ID] = *t
	f.tutorsByPerson[t.PersonID] = *t
	return nil
}

func (f *fakePersonRepo) FindCompetitorByPerson(ctx context.Context, tx *sql.Tx, personID string) (*model.Competitor, error) {
	if c, ok := f.competitors[personID]; ok {
		return &c, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) FindCompetitorByID(ctx context.Context, competitorID string) (*model.Competitor, error) {
	for _, c := range f.competitors {
		if c.ID == competitorID {
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePersonRepo) UpsertCompetitor(ctx context.Context, tx *sql.Tx, c *model.Competitor) error {
	if existing, ok := f.competitors[c.PersonID]; ok {
		c.ID = existing.ID
	}
	f.competitors[c.PersonID] = *c
	return nil
}

type fakeCompetitionRepo struct {
	comps  map[string]model.Competition
	stages map[string][]model.Stage
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{comps: map[string]model.Competition{}, stages: map[string][]model.Stage{}}
}

func (f *fakeCompetitionRepo) Create(ctx context.Context, tx *sql.Tx, c *model.Competition) error {
	for _, existing := range f.comps {
		if existing.Nombre == c.Nombre {
			return common.ErrConflict
		}
	}
	f.comps[c.ID] = *c
	return nil
}

func (f *fakeCompetitionRepo) Update(ctx context.Context, tx *sql.Tx, c *model.Competition) error {
	f.comps[c.ID] = *c
	return nil
}

func (f *fakeCompetitionRepo) FindByID(ctx context.Context, id string) (*model.Competition, error) {
	if c, ok := f.comps[id]; ok {
		return &c, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCompetitionRepo) FindActiveByGestion(ctx context.Context, gestion int) (*model.Competition, error) {
	var found *model.Competition
	for _, c := range f.comps {
		if c.Gestion == gestion {
			comp := c
			if found == nil || comp.FechaIni.After(found.FechaIni) {
				found = &comp
			}
		}
	}
	if found == nil {
		return nil, common.ErrNotFound
	}
	return found, nil
}

func (f *fakeCompetitionRepo) List(ctx context.Context) ([]model.Competition, error) {
	var out []model.Competition
	for _, c := range f.comps {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompetitionRepo) ListNamesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for _, c := range f.comps {
		if len(c.Nombre) >= len(prefix) && c.Nombre[:len(prefix)] == prefix {
			names = append(names, c.Nombre)
		}
	}
	return names, nil
}

func (f *fakeCompetitionRepo) CountOverlapping(ctx context.Context, start, end time.Time, excludeID string) (int, error) {
	count := 0
	for _, c := range f.comps {
		if c.ID == excludeID {
			continue
		}
		if !c.FechaIni.After(end) && !c.FechaFin.Before(start) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCompetitionRepo) UpsertStage(ctx context.Context, tx *sql.Tx, s *model.Stage) error {
	stages := f.stages[s.CompetitionID]
	for i, existing := range stages {
		if existing.NombreEtapa == s.NombreEtapa {
			stages[i] = *s
			return nil
		}
	}
	f.stages[s.CompetitionID] = append(stages, *s)
	return nil
}

func (f *fakeCompetitionRepo) ListStages(ctx context.Context, competitionID string) ([]model.Stage, error) {
	return f.stages[competitionID], nil
}

func (f *fakeCompetitionRepo) ListStagesByCompetitionName(ctx context.Context, nombre string) ([]model.Stage, error) {
	for _, c := range f.comps {
		if c.Nombre == nombre {
			return f.stages[c.ID], nil
		}
	}
	return nil, nil
}

type fakeEnrollmentRepo struct {
	enrollments map[string]model.Enrollment
	payments    []model.Payment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: map[string]model.Enrollment{}}
}

func (f *fakeEnrollmentRepo) CreateEnrollment(ctx context.Context, tx *sql.Tx, e *model.Enrollment) error {
	f.enrollments[e.ID] = *e
	return nil
}

func (f *fakeEnrollmentRepo) CreatePayment(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeEnrollmentRepo) FindEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		return &e, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeEnrollmentRepo) UpdateEnrollmentStatus(ctx context.Context, tx *sql.Tx, id string, estado model.EnrollmentStatus, motivo *string) error {
	e, ok := f.enrollments[id]
	if !ok {
		return common.ErrNotFound
	}
	e.Estado = estado
	e.MotivoRechazo = motivo
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) ListByTutor(ctx context.Context, tutorID string) ([]model.CompetitorRow, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) CountByStatusForTutor(ctx context.Context, tutorID string) ([]model.StatusCount, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) ListByPaymentStatus(ctx context.Context, estadoPago model.PaymentStatus) ([]model.CompetitorRow, error) {
	return nil, nil
}

func (f *fakeEnrollmentRepo) PaymentStats(ctx context.Context) (*model.PaymentStats, error) {
	return &model.PaymentStats{}, nil
}

func (f *fakeEnrollmentRepo) MarkPaymentsPaid(ctx context.Context, enrollmentID string) (int64, error) {
	return 0, nil
}

func (f *fakeEnrollmentRepo) ListAreasByPerson(ctx context.Context, personID string) ([]model.Area, error) {
	return nil, nil
}
