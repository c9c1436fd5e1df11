// Package storage define los contratos compartidos por todos los adapters de persistencia.
package storage

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// NewID genera un identificador opaco de 24 caracteres hex.
// Se usa el mismo formato en todos los backends (memory, mongo, postgres).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID indica si s es un identificador bien formado.
func ValidID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
