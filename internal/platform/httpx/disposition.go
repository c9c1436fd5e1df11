package httpx

import (
	"fmt"
	"net/url"
	"strings"
)

// ContentDisposition arma el header con un filename ASCII para clientes viejos
// y filename* (RFC 5987) con el nombre real. fallback vacío => se deriva de name.
func ContentDisposition(disposition, name, fallback string) string {
	if fallback == "" {
		fallback = asciiName(name)
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`,
		disposition, fallback, url.PathEscape(name))
}

func asciiName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}
