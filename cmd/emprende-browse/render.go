package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/emprendecr/emprende/internal/core/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(5).Align(lipgloss.Right)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#38bdf8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderer writes listings to a terminal.
type renderer struct {
	w       io.Writer
	printer *message.Printer
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w, printer: message.NewPrinter(language.MustParse("es-CR"))}
}

// colones formats a price in Costa Rican colones without decimals.
func (r *renderer) colones(v float64) string {
	return "₡" + r.printer.Sprintf("%d", int64(v+0.5))
}

func (r *renderer) location(provincia, canton string) string {
	switch {
	case provincia != "" && canton != "":
		return canton + ", " + provincia
	default:
		return provincia + canton
	}
}

func (r *renderer) business(i int, b domain.Business) {
	fmt.Fprintf(r.w, "%s %s  %s\n", indexStyle.Render(fmt.Sprint(i)), nameStyle.Render(b.Name),
		mutedStyle.Render(r.location(b.Provincia, b.Canton)))
	fmt.Fprintf(r.w, "      %s\n", mutedStyle.Render(b.Slug()))
}

func (r *renderer) product(i int, p domain.Product) {
	fmt.Fprintf(r.w, "%s %s %s  %s  %s\n", indexStyle.Render(fmt.Sprint(i)), kindStyle.Render("[producto]"),
		nameStyle.Render(p.Name), priceStyle.Render(r.colones(p.Price)), mutedStyle.Render(p.BusinessName))
	fmt.Fprintf(r.w, "      %s\n", mutedStyle.Render(p.Slug()))
}

func (r *renderer) service(i int, s domain.Service) {
	line := fmt.Sprintf("%s %s %s  %s", indexStyle.Render(fmt.Sprint(i)), kindStyle.Render("[servicio]"),
		nameStyle.Render(s.Name), priceStyle.Render(r.colones(s.Price)))
	if s.DurationMinutes > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" (%d min)", s.DurationMinutes))
	}
	fmt.Fprintf(r.w, "%s  %s\n      %s\n", line, mutedStyle.Render(s.BusinessName), mutedStyle.Render(s.Slug()))
}

func (r *renderer) detail(e domain.Entity) {
	switch v := e.(type) {
	case *domain.Business:
		fmt.Fprintln(r.w, headerStyle.Render(v.Name))
		r.field("Ubicación", r.location(v.Provincia, v.Canton))
		r.field("Descripción", v.Description)
		r.field("WhatsApp", v.WhatsApp)
		r.field("Correo", v.Email)
		r.field("Sitio", v.Website)
	case *domain.Product:
		fmt.Fprintln(r.w, headerStyle.Render(v.Name))
		r.field("Precio", r.colones(v.Price))
		r.field("Negocio", v.BusinessName)
		r.field("Ubicación", r.location(v.Provincia, v.Canton))
		r.field("Descripción", v.Description)
	case *domain.Service:
		fmt.Fprintln(r.w, headerStyle.Render(v.Name))
		r.field("Precio", r.colones(v.Price))
		if v.DurationMinutes > 0 {
			r.field("Duración", fmt.Sprintf("%d min", v.DurationMinutes))
		}
		r.field("Negocio", v.BusinessName)
		r.field("Ubicación", r.location(v.Provincia, v.Canton))
		r.field("Descripción", v.Description)
	}
}

func (r *renderer) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(r.w, "  %s %s\n", mutedStyle.Render(label+":"), value)
}

func (r *renderer) filters(f domain.Filters) {
	r.field("provincia", strings.Join(f.Provincia.Values(), ","))
	r.field("canton", strings.Join(f.Canton.Values(), ","))
	r.field("category", strings.Join(f.CategoryID.Values(), ","))
	r.field("search", f.Search)
	r.field("sort", string(f.SortBy))
}

func (r *renderer) footer(more bool) {
	if more {
		fmt.Fprintln(r.w, mutedStyle.Render("-- more results: type \"more\" --"))
		return
	}
	fmt.Fprintln(r.w, mutedStyle.Render("-- end of results --"))
}

func (r *renderer) link(u string) {
	fmt.Fprintln(r.w, u)
}

func (r *renderer) notice(msg string) {
	fmt.Fprintln(r.w, mutedStyle.Render(msg))
}

func (r *renderer) error(err error) {
	fmt.Fprintln(r.w, errorStyle.Render("error: "+err.Error()))
}

func (r *renderer) prompt() {
	fmt.Fprint(r.w, "> ")
}

func (r *renderer) help() {
	fmt.Fprint(r.w, `commands:
  more                  load the next page
  provincia NAME[,..]   filter by provincia (empty clears)
  canton NAME[,..]      filter by canton
  category ID[,..]      filter by category
  search TEXT           search names and descriptions
  sort MODE             random, popularity, newest (empty for default)
  type KIND             businesses, products, services or all
  find TEXT             narrow loaded businesses without fetching
  open SLUG             show details
  contact SLUG          print the WhatsApp link and record the contact
  filters               show active filters
  quit
`)
}
