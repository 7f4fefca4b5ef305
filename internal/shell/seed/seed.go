// Package seed loads a YAML catalog of categories, businesses and their
// items into a store.
//
// A catalog looks like:
//
//	categories:
//	  - id: comida
//	    name: Comida
//	businesses:
//	  - name: Café Delicioso
//	    provincia: San José
//	    canton: Escazú
//	    whatsapp: "8888-1234"
//	    products:
//	      - name: Café Molido
//	        price: 4500
//	    services:
//	      - name: Cata de café
//	        price: 12000
//	        duration_minutes: 90
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/store"
	"gopkg.in/yaml.v3"
)

// Catalog is the document shape of a seed file.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	Businesses []Business `yaml:"businesses"`
}

// Category is a seeded category. Categories whose id already exists are
// skipped, so a catalog can be loaded over a seeded database.
type Category struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Business is a seeded business with its items.
type Business struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	CategoryID  string    `yaml:"category_id"`
	Provincia   string    `yaml:"provincia"`
	Canton      string    `yaml:"canton"`
	WhatsApp    string    `yaml:"whatsapp"`
	Email       string    `yaml:"email"`
	Website     string    `yaml:"website"`
	LogoURL     string    `yaml:"logo_url"`
	Inactive    bool      `yaml:"inactive"`
	Products    []Product `yaml:"products"`
	Services    []Service `yaml:"services"`
}

// Product is a seeded product.
type Product struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	CategoryID  string  `yaml:"category_id"`
	Price       float64 `yaml:"price"`
	ImageURL    string  `yaml:"image_url"`
	Unavailable bool    `yaml:"unavailable"`
}

// Service is a seeded service.
type Service struct {
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	CategoryID      string  `yaml:"category_id"`
	Price           float64 `yaml:"price"`
	DurationMinutes int     `yaml:"duration_minutes"`
	ImageURL        string  `yaml:"image_url"`
	Unavailable     bool    `yaml:"unavailable"`
}

// Result counts what a load created.
type Result struct {
	Categories int
	Businesses int
	Products   int
	Services   int
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// LoadFile parses the catalog at path and loads it into s.
func LoadFile(ctx context.Context, s store.Store, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return Result{}, err
	}
	return Load(ctx, s, c)
}

// Load writes the catalog in a single transaction. Any invalid entry rolls
// back the whole catalog.
func Load(ctx context.Context, s store.Store, c *Catalog) (Result, error) {
	var res Result
	err := s.WithTx(ctx, func(tx store.Store) error {
		res = Result{}
		for i, sc := range c.Categories {
			created, err := loadCategory(ctx, tx, sc)
			if err != nil {
				return fmt.Errorf("category %d (%q): %w", i, sc.Name, err)
			}
			if created {
				res.Categories++
			}
		}
		for i, sb := range c.Businesses {
			products, services, err := loadBusiness(ctx, tx, sb)
			if err != nil {
				return fmt.Errorf("business %d (%q): %w", i, sb.Name, err)
			}
			res.Businesses++
			res.Products += products
			res.Services += services
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func loadCategory(ctx context.Context, s store.Store, sc Category) (bool, error) {
	name := strings.TrimSpace(sc.Name)
	if name == "" {
		return false, domain.ErrNameRequired
	}
	id := strings.TrimSpace(sc.ID)
	if id == "" {
		id = domain.DefaultCodec().NormalizeName(name)
	}

	err := s.CreateCategory(ctx, &domain.Category{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(sc.Description),
		CreatedAt:   time.Now(),
	})
	if errors.Is(err, store.ErrDuplicateID) {
		return false, nil
	}
	return err == nil, err
}

func loadBusiness(ctx context.Context, s store.Store, sb Business) (products, services int, err error) {
	b, err := domain.NewBusiness(sb.Name)
	if err != nil {
		return 0, 0, err
	}
	if b.Provincia, b.Canton, err = canonicalLocation(sb.Provincia, sb.Canton); err != nil {
		return 0, 0, err
	}
	b.Description = strings.TrimSpace(sb.Description)
	b.CategoryID = strings.TrimSpace(sb.CategoryID)
	b.WhatsApp = strings.TrimSpace(sb.WhatsApp)
	b.Email = strings.TrimSpace(sb.Email)
	b.Website = strings.TrimSpace(sb.Website)
	b.LogoURL = strings.TrimSpace(sb.LogoURL)
	b.Active = !sb.Inactive

	if err := s.CreateBusiness(ctx, b); err != nil {
		return 0, 0, err
	}

	for _, sp := range sb.Products {
		p, err := domain.NewProduct(b.ID, sp.Name, sp.Price)
		if err != nil {
			return 0, 0, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		p.Description = strings.TrimSpace(sp.Description)
		p.CategoryID = strings.TrimSpace(sp.CategoryID)
		p.ImageURL = strings.TrimSpace(sp.ImageURL)
		p.Available = !sp.Unavailable
		if err := s.CreateProduct(ctx, p); err != nil {
			return 0, 0, fmt.Errorf("product %q: %w", sp.Name, err)
		}
		products++
	}

	for _, ss := range sb.Services {
		sv, err := domain.NewService(b.ID, ss.Name, ss.Price, ss.DurationMinutes)
		if err != nil {
			return 0, 0, fmt.Errorf("service %q: %w", ss.Name, err)
		}
		sv.Description = strings.TrimSpace(ss.Description)
		sv.CategoryID = strings.TrimSpace(ss.CategoryID)
		sv.ImageURL = strings.TrimSpace(ss.ImageURL)
		sv.Available = !ss.Unavailable
		if err := s.CreateService(ctx, sv); err != nil {
			return 0, 0, fmt.Errorf("service %q: %w", ss.Name, err)
		}
		services++
	}
	return products, services, nil
}

// canonicalLocation returns the catalog spelling of a provincia and canton.
// Unknown provincias are kept as written; a canton must belong to its
// provincia.
func canonicalLocation(provincia, canton string) (string, string, error) {
	provincia = strings.TrimSpace(provincia)
	if p, ok := domain.LookupProvincia(provincia); ok {
		provincia = p.Name
	}
	canton = strings.TrimSpace(canton)
	if canton == "" {
		return provincia, "", nil
	}
	c, ok := domain.LookupCanton(provincia, canton)
	if !ok {
		return "", "", fmt.Errorf("canton %q is not in provincia %q", canton, provincia)
	}
	return provincia, c, nil
}
