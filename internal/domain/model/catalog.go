package model

type Cycle string

const (
	CicloPrimaria   Cycle = "Primaria"
	CicloSecundaria Cycle = "Secundaria"
)

// Area is a competition subject area ("Robótica", "Matemáticas", ...).
type Area struct {
	ID     string `json:"codArea"`
	Nombre string `json:"nombreArea"`
}

// Grade is a regular numeric academic grade, unique per (numero, ciclo).
type Grade struct {
	ID     string `json:"codGrado"`
	Numero int    `json:"numero"`
	Ciclo  Cycle  `json:"ciclo"`
}

// SpecialLevel is a named bracket that spans several numeric grades
// under one label; GradoRange is free text ("3ro a 6to Primaria").
type SpecialLevel struct {
	ID         string `json:"codNivel"`
	Nombre     string `json:"nombreNivel"`
	GradoRange string `json:"gradoRange"`
	AreaID     string `json:"codArea"`
}

type Departamento struct {
	ID     string `json:"codDept"`
	Nombre string `json:"nombreDept"`
}

type Municipio struct {
	ID      string `json:"codMun"`
	Nombre  string `json:"nombreMun"`
	CodDept string `json:"codDept"`
}

// AreaGradeLevel is a flattened catalog row used by the registration
// frontend: grades available per area, bucketed by cycle.
type AreaGradeLevel struct {
	CodGrado string  `json:"codGrado"`
	Grade    string  `json:"grade"`
	Level    string  `json:"level"`
	Price    float64 `json:"price"`
}

type AreaCatalog struct {
	CodArea   string           `json:"codArea"`
	Primary   []AreaGradeLevel `json:"primary"`
	Secondary []AreaGradeLevel `json:"secondary"`
}
