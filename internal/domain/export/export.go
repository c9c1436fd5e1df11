package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/platform/dates"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatHTML Format = "html"
	FormatMD   Format = "md"
)

const placeholder = "-"

var (
	ErrNoData        = errors.New("no data to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

var contentTypes = map[Format]string{
	FormatCSV:  "text/csv",
	FormatTSV:  "text/tab-separated-values",
	FormatHTML: "text/html",
	FormatMD:   "text/markdown",
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := contentTypes[f]; !ok {
		return "", ErrUnknownFormat
	}
	return f, nil
}

// Document es el archivo listo para descargar.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string // puede tener no-ASCII (título del tipo)
	ASCIIName   string
}

// Render arma el documento. Los registros se escriben en el orden recibido.
func Render(spec records.KindSpec, format Format, items []records.Record, now time.Time) (Document, error) {
	ct, ok := contentTypes[format]
	if !ok {
		return Document{}, ErrUnknownFormat
	}
	if len(items) == 0 {
		return Document{}, ErrNoData
	}

	header, rows := Table(spec, items)

	var (
		body []byte
		err  error
	)
	switch format {
	case FormatCSV:
		body, err = renderDelimited(header, rows, ',', true)
	case FormatTSV:
		body, err = renderDelimited(header, rows, '\t', false)
	case FormatHTML:
		body, err = renderHTML(spec.Title, header, rows)
	case FormatMD:
		body = renderMarkdown(spec.Title, header, rows)
	}
	if err != nil {
		return Document{}, fmt.Errorf("render %s: %w", format, err)
	}

	stamp := now.UTC().Format("2006-01-02")
	return Document{
		Body:        body,
		ContentType: ct,
		Filename:    fmt.Sprintf("%s_%s.%s", spec.Title, stamp, format),
		ASCIIName:   fmt.Sprintf("%s_%s.%s", spec.Kind, stamp, format),
	}, nil
}

// Table devuelve encabezado y filas ya formateadas:
// fecha y hora, campos del tipo, comentario, usuario.
func Table(spec records.KindSpec, items []records.Record) ([]string, [][]string) {
	header := make([]string, 0, len(spec.Fields)+3)
	header = append(header, "Fecha y hora")
	for _, f := range spec.Fields {
		header = append(header, f.Label)
	}
	header = append(header, "Comentario", "Usuario")

	rows := make([][]string, 0, len(items))
	for _, rec := range items {
		row := make([]string, 0, len(header))
		row = append(row, rec.DateTime.UTC().Format(dates.DateTimeLayout))
		for _, f := range spec.Fields {
			row = append(row, Cell(rec.Value(f.Name)))
		}
		row = append(row, Cell(rec.Comment), Cell(rec.Username))
		rows = append(rows, row)
	}
	return header, rows
}

// Cell formatea un valor: vacío => "-", bool => Sí/No.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return placeholder
	case bool:
		if x {
			return "Sí"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		if strings.TrimSpace(x) == "" {
			return placeholder
		}
		return x
	case time.Time:
		return x.UTC().Format(dates.DateTimeLayout)
	default:
		s := fmt.Sprint(x)
		if strings.TrimSpace(s) == "" {
			return placeholder
		}
		return s
	}
}

// -------------------------
// Formatos
// -------------------------

func renderDelimited(header []string, rows [][]string, sep rune, bom bool) ([]byte, error) {
	var buf bytes.Buffer
	if bom {
		buf.WriteString("\ufeff")
	}
	w := csv.NewWriter(&buf)
	w.Comma = sep
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var htmlTmpl = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:6px 8px;text-align:left}
th{background:#f2f2f2}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

func renderHTML(title string, header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlTmpl.Execute(&buf, struct {
		Title  string
		Header []string
		Rows   [][]string
	}{title, header, rows})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func renderMarkdown(title string, header []string, rows [][]string) []byte {
	var b strings.Builder
	b.WriteString("# " + title + "\n\n")

	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" " + mdReplacer.Replace(c) + " |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	b.WriteString("|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		writeRow(r)
	}
	return []byte(b.String())
}
