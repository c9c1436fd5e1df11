// Package httpx reúne los helpers de respuesta que antes estaban duplicados en cada handler.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pet-health-tracker/internal/platform/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError escribe {"error": msg}. Errores desconocidos salen como 500 genérico.
func WriteError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	if ae == nil {
		ae = apperr.Internal(errors.New("nil error"))
	}
	WriteJSON(w, ae.Status, map[string]string{"error": ae.Message})
}

// WriteSuccess arma el sobre {"success": true, "message": ..., ...extra}.
func WriteSuccess(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := make(map[string]any, len(extra)+2)
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = true
	body["message"] = message
	WriteJSON(w, status, body)
}

// DecodeJSON decodifica el body; body vacío o JSON inválido => 422.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Unprocessable("Invalid input data")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Unprocessable("request body is required")
		}
		return apperr.Unprocessable("Invalid input data")
	}
	return nil
}
