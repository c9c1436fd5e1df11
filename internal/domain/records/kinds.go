package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind es el segmento de URL de cada tipo de registro (/api/{kind}).
type Kind string

const (
	KindAsthma        Kind = "asthma"
	KindDefecation    Kind = "defecation"
	KindLitter        Kind = "litter"
	KindWeight        Kind = "weight"
	KindFeeding       Kind = "feeding"
	KindEyeDrops      Kind = "eye_drops"
	KindToothBrushing Kind = "tooth_brushing"
	KindEarCleaning   Kind = "ear_cleaning"
)

type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldBool
)

// Field describe un campo propio del tipo de registro (además de fecha, comentario y usuario).
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
}

// KindSpec es el esquema de un tipo de registro.
type KindSpec struct {
	Kind       Kind
	Collection string // colección/tabla lógica
	ListKey    string // key del array en GET /api/{kind}
	Title      string // título del export
	Fields     []Field
}

var specs = []KindSpec{
	{
		Kind: KindAsthma, Collection: "asthma_attacks", ListKey: "attacks", Title: "Ataques de asma",
		Fields: []Field{
			{Name: "duration", Label: "Duración", Type: FieldText},
			{Name: "reason", Label: "Motivo", Type: FieldText},
			{Name: "inhalation", Label: "Inhalación", Type: FieldBool},
		},
	},
	{
		Kind: KindDefecation, Collection: "defecations", ListKey: "defecations", Title: "Defecaciones",
		Fields: []Field{
			{Name: "stool_type", Label: "Tipo de heces", Type: FieldText},
			{Name: "color", Label: "Color", Type: FieldText},
			{Name: "food", Label: "Alimento", Type: FieldText},
		},
	},
	{
		Kind: KindLitter, Collection: "litter_changes", ListKey: "litter_changes", Title: "Cambios de arena",
	},
	{
		Kind: KindWeight, Collection: "weights", ListKey: "weights", Title: "Peso",
		Fields: []Field{
			{Name: "weight", Label: "Peso (kg)", Type: FieldNumber, Required: true},
			{Name: "food", Label: "Alimento", Type: FieldText},
		},
	},
	{
		Kind: KindFeeding, Collection: "feedings", ListKey: "feedings", Title: "Alimentación",
		Fields: []Field{
			{Name: "food_weight", Label: "Ración (g)", Type: FieldNumber, Required: true},
		},
	},
	{
		Kind: KindEyeDrops, Collection: "eye_drops", ListKey: "eye_drops", Title: "Gotas para los ojos",
		Fields: []Field{
			{Name: "drops_type", Label: "Tipo de gotas", Type: FieldText},
		},
	},
	{
		Kind: KindToothBrushing, Collection: "tooth_brushing", ListKey: "tooth_brushing", Title: "Cepillado de dientes",
		Fields: []Field{
			{Name: "brushing_type", Label: "Tipo de cepillado", Type: FieldText},
		},
	},
	{
		Kind: KindEarCleaning, Collection: "ear_cleaning", ListKey: "ear_cleaning", Title: "Limpieza de oídos",
		Fields: []Field{
			{Name: "cleaning_type", Label: "Método de limpieza", Type: FieldText},
		},
	},
}

// Kinds devuelve los esquemas en orden estable.
func Kinds() []KindSpec {
	out := make([]KindSpec, len(specs))
	copy(out, specs)
	return out
}

func Lookup(kind string) (KindSpec, bool) {
	for _, s := range specs {
		if string(s.Kind) == kind {
			return s, true
		}
	}
	return KindSpec{}, false
}

func MustLookup(kind Kind) KindSpec {
	s, ok := Lookup(string(kind))
	if !ok {
		panic("records: unknown kind " + string(kind))
	}
	return s
}

func ByCollection(collection string) (KindSpec, bool) {
	for _, s := range specs {
		if s.Collection == collection {
			return s, true
		}
	}
	return KindSpec{}, false
}

// Field busca un campo por nombre.
func (k KindSpec) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Normalize convierte un valor JSON al tipo del campo.
// Texto vacío => nil (el campo queda ausente); number acepta también strings numéricos ("4,5" incluido).
func (f Field) Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", f.Name)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		return s, nil

	case FieldNumber:
		switch n := v.(type) {
		case json.Number:
			x, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", f.Name)
			}
			return x, nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(n), ",", ".")
			if s == "" {
				return nil, nil
			}
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", f.Name)
			}
			return x, nil
		}
		return nil, fmt.Errorf("%s must be a number", f.Name)

	case FieldBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "1", "yes", "on":
				return true, nil
			case "false", "0", "no", "off":
				return false, nil
			case "":
				return nil, nil
			}
		}
		return nil, fmt.Errorf("%s must be a boolean", f.Name)
	}
	return nil, fmt.Errorf("%s: unsupported field type", f.Name)
}

// NormalizeFields valida los campos propios presentes en raw.
// Con partial=false exige los requeridos; con partial=true un valor vacío en un
// campo opcional se devuelve en unset (se borra) y en uno requerido es error.
func (k KindSpec) NormalizeFields(raw map[string]any, partial bool) (set map[string]any, unset []string, err error) {
	set = map[string]any{}
	for _, f := range k.Fields {
		v, present := raw[f.Name]
		if !present {
			if f.Required && !partial {
				return nil, nil, fmt.Errorf("%s is required", f.Name)
			}
			continue
		}
		nv, err := f.Normalize(v)
		if err != nil {
			return nil, nil, err
		}
		if nv == nil {
			if f.Required {
				return nil, nil, fmt.Errorf("%s is required", f.Name)
			}
			if partial {
				unset = append(unset, f.Name)
			}
			continue
		}
		set[f.Name] = nv
	}
	return set, unset, nil
}
