package domain

import "strings"

// =============================================================================
// Locations
// =============================================================================

// Provincia is a first-level administrative division with its cantones.
type Provincia struct {
	Name    string   `json:"name"`
	Cantons []string `json:"cantons"`
}

var provincias = []Provincia{
	{Name: "San José", Cantons: []string{
		"San José", "Escazú", "Desamparados", "Puriscal", "Tarrazú", "Aserrí", "Mora",
		"Goicoechea", "Santa Ana", "Alajuelita", "Vázquez de Coronado", "Acosta", "Tibás",
		"Moravia", "Montes de Oca", "Turrubares", "Dota", "Curridabat", "Pérez Zeledón",
		"León Cortés Castro",
	}},
	{Name: "Alajuela", Cantons: []string{
		"Alajuela", "San Ramón", "Grecia", "San Mateo", "Atenas", "Naranjo", "Palmares",
		"Poás", "Orotina", "San Carlos", "Zarcero", "Sarchí", "Upala", "Los Chiles",
		"Guatuso", "Río Cuarto",
	}},
	{Name: "Cartago", Cantons: []string{
		"Cartago", "Paraíso", "La Unión", "Jiménez", "Turrialba", "Alvarado", "Oreamuno",
		"El Guarco",
	}},
	{Name: "Heredia", Cantons: []string{
		"Heredia", "Barva", "Santo Domingo", "Santa Bárbara", "San Rafael", "San Isidro",
		"Belén", "Flores", "San Pablo", "Sarapiquí",
	}},
	{Name: "Guanacaste", Cantons: []string{
		"Liberia", "Nicoya", "Santa Cruz", "Bagaces", "Carrillo", "Cañas", "Abangares",
		"Tilarán", "Nandayure", "La Cruz", "Hojancha",
	}},
	{Name: "Puntarenas", Cantons: []string{
		"Puntarenas", "Esparza", "Buenos Aires", "Montes de Oro", "Osa", "Quepos", "Golfito",
		"Coto Brus", "Parrita", "Corredores", "Garabito", "Monteverde", "Puerto Jiménez",
	}},
	{Name: "Limón", Cantons: []string{
		"Limón", "Pococí", "Siquirres", "Talamanca", "Matina", "Guácimo",
	}},
}

// Provincias returns every provincia with its cantones.
func Provincias() []Provincia {
	out := make([]Provincia, len(provincias))
	for i, p := range provincias {
		out[i] = Provincia{Name: p.Name, Cantons: append([]string(nil), p.Cantons...)}
	}
	return out
}

// LookupProvincia finds a provincia by name, ignoring case and accents.
func LookupProvincia(name string) (Provincia, bool) {
	key := locationKey(name)
	for _, p := range provincias {
		if locationKey(p.Name) == key {
			return p, true
		}
	}
	return Provincia{}, false
}

// CantonsOf returns the cantones of a provincia, or nil when it is unknown.
func CantonsOf(provincia string) []string {
	p, ok := LookupProvincia(provincia)
	if !ok {
		return nil
	}
	return append([]string(nil), p.Cantons...)
}

// IsCantonOf reports whether canton lies inside provincia.
func IsCantonOf(provincia, canton string) bool {
	_, ok := LookupCanton(provincia, canton)
	return ok
}

// LookupCanton returns the catalog spelling of canton within provincia,
// ignoring case and accents.
func LookupCanton(provincia, canton string) (string, bool) {
	key := locationKey(canton)
	for _, c := range CantonsOf(provincia) {
		if locationKey(c) == key {
			return c, true
		}
	}
	return "", false
}

func locationKey(s string) string {
	return strings.ToLower(strings.TrimSpace(FoldAccents(s)))
}
