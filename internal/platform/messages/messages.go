// Package messages centraliza los textos de éxito que ve el usuario final.
package messages

import (
	"fmt"
	"strings"
)

var catalog = map[string]string{
	// Mascotas
	"pet_created":  "Mascota creada",
	"pet_updated":  "Datos de la mascota actualizados",
	"pet_deleted":  "Mascota eliminada",
	"pet_shared":   "Acceso otorgado al usuario {username}",
	"pet_unshared": "Acceso retirado al usuario {username}",

	// Usuarios
	"user_created":        "Usuario creado",
	"user_updated":        "Usuario actualizado",
	"user_deactivated":    "Usuario desactivado",
	"user_password_reset": "Contraseña actualizada",

	// Sesión
	"login":   "Sesión iniciada",
	"logout":  "Sesión cerrada",
	"refresh": "Token renovado",

	// Registros
	"asthma_created": "Ataque de asma registrado",
	"asthma_updated": "Ataque de asma actualizado",
	"asthma_deleted": "Ataque de asma eliminado",

	"defecation_created": "Defecación registrada",
	"defecation_updated": "Defecación actualizada",
	"defecation_deleted": "Defecación eliminada",

	"litter_created": "Cambio de arena registrado",
	"litter_updated": "Cambio de arena actualizado",
	"litter_deleted": "Cambio de arena eliminado",

	"weight_created": "Peso registrado",
	"weight_updated": "Peso actualizado",
	"weight_deleted": "Peso eliminado",

	"feeding_created": "Ración diaria registrada",
	"feeding_updated": "Ración diaria actualizada",
	"feeding_deleted": "Ración diaria eliminada",

	"eye_drops_created": "Registro de gotas creado",
	"eye_drops_updated": "Registro de gotas actualizado",
	"eye_drops_deleted": "Registro de gotas eliminado",

	"tooth_brushing_created": "Registro de cepillado creado",
	"tooth_brushing_updated": "Registro de cepillado actualizado",
	"tooth_brushing_deleted": "Registro de cepillado eliminado",

	"ear_cleaning_created": "Registro de limpieza de oídos creado",
	"ear_cleaning_updated": "Registro de limpieza de oídos actualizado",
	"ear_cleaning_deleted": "Registro de limpieza de oídos eliminado",
}

// Get devuelve el mensaje para key, reemplazando {placeholders} con args.
// Los args que no aparecen en la plantilla se ignoran acá; el handler decide
// si los agrega como campos extra de la respuesta.
func Get(key string, args map[string]string) string {
	tpl, ok := catalog[key]
	if !ok {
		return fmt.Sprintf("Operación realizada con éxito (%s)", key)
	}
	for k, v := range args {
		tpl = strings.ReplaceAll(tpl, "{"+k+"}", v)
	}
	return tpl
}

// Has indica si existe un mensaje para key.
func Has(key string) bool {
	_, ok := catalog[key]
	return ok
}
