// Package dates parsea las fechas que llegan desde formularios (YYYY-MM-DD + HH:MM).
// Todas las horas se interpretan y guardan en UTC como hora "de pared".
package dates

import (
	"errors"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02 15:04"

	MaxPastYears  = 50
	MaxFutureDays = 1
)

var (
	ErrInvalidFormat = errors.New("invalid date/time format, expected YYYY-MM-DD and HH:MM")
	ErrTooFarFuture  = errors.New("date is too far in the future")
	ErrTooFarPast    = errors.New("date is too far in the past")
	ErrIncomplete    = errors.New("date and time must be provided together")
)

// ParseDateTime combina date (obligatorio) y clock (opcional) y valida el rango:
// no más de maxFutureDays hacia adelante ni más de MaxPastYears hacia atrás.
func ParseDateTime(date, clock string, now time.Time, maxFutureDays int) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, ErrInvalidFormat
	}

	var (
		t   time.Time
		err error
	)
	if clock != "" {
		t, err = time.Parse(DateTimeLayout, date+" "+clock)
	} else {
		t, err = time.Parse(DateLayout, date)
	}
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}

	now = now.UTC()
	if t.After(now.AddDate(0, 0, maxFutureDays)) {
		return time.Time{}, ErrTooFarFuture
	}
	if t.Before(now.AddDate(-MaxPastYears, 0, 0)) {
		return time.Time{}, ErrTooFarPast
	}
	return t, nil
}

// ParseBirthDate valida una fecha de nacimiento: sin futuro y no más de 50 años atrás.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	return ParseDateTime(s, "", now, 0)
}

// EventDateTime resuelve la fecha de un registro: fecha y hora van juntas;
// si faltan ambas se usa now (truncado al minuto).
func EventDateTime(date, clock string, now time.Time) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	switch {
	case date == "" && clock == "":
		return now.UTC().Truncate(time.Minute), nil
	case date == "" || clock == "":
		return time.Time{}, ErrIncomplete
	}
	return ParseDateTime(date, clock, now, MaxFutureDays)
}
