package records

import "time"

// Record es un evento de salud de una mascota. Fields contiene los campos
// propios del tipo (ver KindSpec.Fields) ya normalizados: string, float64 o bool.
type Record struct {
	ID       string
	Kind     Kind
	PetID    string // vacío solo en datos heredados corruptos
	DateTime time.Time
	Fields   map[string]any
	Comment  string
	Username string // creador; vacío en registros heredados
}

// Value devuelve el valor de un campo propio, nil si no está.
func (r Record) Value(name string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// Patch: nil = no tocar. Unset borra campos propios.
type Patch struct {
	DateTime *time.Time
	Comment  *string
	Set      map[string]any
	Unset    []string
}

func (p Patch) IsEmpty() bool {
	return p.DateTime == nil && p.Comment == nil && len(p.Set) == 0 && len(p.Unset) == 0
}

// Apply se usa en repos sin update parcial nativo y para armar la respuesta.
func (p Patch) Apply(r Record) Record {
	fields := make(map[string]any, len(r.Fields)+len(p.Set))
	for k, v := range r.Fields {
		fields[k] = v
	}
	for k, v := range p.Set {
		fields[k] = v
	}
	for _, k := range p.Unset {
		delete(fields, k)
	}
	r.Fields = fields

	if p.DateTime != nil {
		r.DateTime = *p.DateTime
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	return r
}

// Page son los parámetros de paginación (ambos >= 1).
type Page struct {
	Page     int
	PageSize int
}

const (
	DefaultPage     = 1
	DefaultPageSize = 100
)

func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

// Beyond indica si la página cae después del último registro. No multiplica,
// así page*page_size no desborda con valores enormes.
func (p Page) Beyond(total int) bool {
	pages := total / p.PageSize
	if total%p.PageSize != 0 {
		pages++
	}
	return p.Page-1 >= pages
}
