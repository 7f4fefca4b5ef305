package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/api"
	"github.com/emprendecr/emprende/internal/shell/client"
	shelllisting "github.com/emprendecr/emprende/internal/shell/listing"
	"github.com/emprendecr/emprende/internal/shell/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *store.SQLiteStore
	client *client.Client
	soda   *domain.Business
	spa    *domain.Business
}

func newFixture(t *testing.T, products int) *fixture {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	soda, err := domain.NewBusiness("Soda La Esquina")
	require.NoError(t, err)
	soda.Provincia, soda.Canton, soda.WhatsApp = "Cartago", "Paraíso", "8888-0000"
	require.NoError(t, s.CreateBusiness(ctx, soda))

	spa, err := domain.NewBusiness("Spa Arenal")
	require.NoError(t, err)
	spa.Provincia, spa.Canton = "Alajuela", "San Carlos"
	require.NoError(t, s.CreateBusiness(ctx, spa))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < products; i++ {
		p, err := domain.NewProduct(soda.ID, fmt.Sprintf("Casado %02d", i), 3500)
		require.NoError(t, err)
		p.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.CreateProduct(ctx, p))
	}
	sv, err := domain.NewService(spa.ID, "Masaje", 25000, 60)
	require.NoError(t, err)
	require.NoError(t, s.CreateService(ctx, sv))

	server := httptest.NewServer(api.NewHandler(s, nil, nil, nil, api.Config{}).Routes())
	t.Cleanup(server.Close)

	return &fixture{
		store:  s,
		client: client.NewClient(client.Config{BaseURL: server.URL}, nil),
		soda:   soda,
		spa:    spa,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fixture) browse(t *testing.T, kind string, filters domain.Filters, script string, opts ...shelllisting.Option) string {
	t.Helper()
	var out bytes.Buffer
	b := newBrowser(f.client, &out, kind, filters, domain.DefaultCountryCode, quietLogger(), opts...)
	require.NoError(t, b.run(context.Background(), strings.NewReader(script)))
	return out.String()
}

func TestBrowser_MoreContinuesListing(t *testing.T) {
	f := newFixture(t, 62)

	out := f.browse(t, "products", domain.Filters{}, "more\nmore\nquit\n")

	assert.Equal(t, 62, strings.Count(out, "[producto]"))
	assert.Contains(t, out, "Casado 00")
	assert.Contains(t, out, "Casado 61")
	assert.Contains(t, out, "-- end of results --")
	assert.Contains(t, out, "no more results")
	assert.NotContains(t, out, "[servicio]")
}

func TestBrowser_FirstPageHasMore(t *testing.T) {
	f := newFixture(t, 62)

	out := f.browse(t, "products", domain.Filters{}, "quit\n")

	assert.Equal(t, 50, strings.Count(out, "[producto]"))
	assert.Contains(t, out, "-- more results")
}

func TestBrowser_FacetChangeResetsListing(t *testing.T) {
	f := newFixture(t, 3)

	out := f.browse(t, "all", domain.Filters{}, "provincia Alajuela\nprovincia\nquit\n")

	// initial (3 products + 1 service), Alajuela (1 service), cleared (again 3 + 1)
	assert.Equal(t, 6, strings.Count(out, "[producto]"))
	assert.Equal(t, 3, strings.Count(out, "[servicio]"))
	assert.Contains(t, out, "(60 min)")
}

func TestBrowser_TypeSwitch(t *testing.T) {
	f := newFixture(t, 2)

	out := f.browse(t, "products", domain.Filters{}, "type businesses\nquit\n")

	assert.Contains(t, out, "Soda La Esquina")
	assert.Contains(t, out, "Paraíso, Cartago")
	assert.Contains(t, out, f.spa.Slug())
}

func TestBrowser_OpenAndContact(t *testing.T) {
	f := newFixture(t, 0)

	script := "open " + f.soda.Slug() + "\ncontact " + f.soda.Slug() + "\nopen missing\nquit\n"
	out := f.browse(t, "businesses", domain.Filters{}, script)

	assert.Contains(t, out, "Ubicación:")
	assert.Contains(t, out, "https://wa.me/50688880000?text=")
	assert.Contains(t, out, `"missing" not found`)
}

func TestBrowser_ContactWithoutWhatsApp(t *testing.T) {
	f := newFixture(t, 0)

	out := f.browse(t, "businesses", domain.Filters{}, "contact "+f.spa.Slug()+"\nquit\n")

	assert.Contains(t, out, "has no WhatsApp number")
}

func TestBrowser_PageSizeOption(t *testing.T) {
	f := newFixture(t, 5)

	out := f.browse(t, "products", domain.Filters{}, "more\nquit\n", shelllisting.WithPageSize(2))

	assert.Equal(t, 4, strings.Count(out, "[producto]"))
}

func TestBrowser_CommandErrors(t *testing.T) {
	f := newFixture(t, 1)

	out := f.browse(t, "products", domain.Filters{}, "sort sideways\nfly\ntype shops\nhelp\n")

	assert.Contains(t, out, "error: sort_by must be one of")
	assert.Contains(t, out, `unknown command "fly"`)
	assert.Contains(t, out, `unknown type "shops"`)
	assert.Contains(t, out, "commands:")
}

func TestBrowser_FindNarrowsLoadedBusinesses(t *testing.T) {
	f := newFixture(t, 0)

	out := f.browse(t, "businesses", domain.Filters{}, "find soda\nquit\n")

	assert.Equal(t, 2, strings.Count(out, "Soda La Esquina"))
	assert.Equal(t, 1, strings.Count(out, "Spa Arenal"))
	assert.Contains(t, out, "1 of 2 loaded businesses match")
}

func TestBrowser_FindOutsideBusinesses(t *testing.T) {
	f := newFixture(t, 1)

	out := f.browse(t, "products", domain.Filters{}, "find casado\nquit\n")

	assert.Contains(t, out, "find works on the businesses listing")
	assert.Equal(t, 1, strings.Count(out, "[producto]"))
}

func TestBrowser_CantonOutsideProvinciaNotice(t *testing.T) {
	f := newFixture(t, 1)

	out := f.browse(t, "products", domain.Filters{}, "provincia Cartago\ncanton Escazú\ncanton Paraíso\nquit\n")

	assert.Contains(t, out, `canton "Escazú" is not in provincia "Cartago"`)
	assert.NotContains(t, out, `canton "Paraíso" is not`)
}

func TestApplyFacet(t *testing.T) {
	f, err := applyFacet(domain.Filters{}, "provincia", "San José, Heredia")
	require.NoError(t, err)
	assert.Equal(t, domain.FacetMulti, f.Provincia.Kind())
	assert.Equal(t, []string{"San José", "Heredia"}, f.Provincia.Values())

	f, err = applyFacet(f, "provincia", "")
	require.NoError(t, err)
	assert.True(t, f.Provincia.IsAbsent())

	f, err = applyFacet(f, "canton", "Escazú")
	require.NoError(t, err)
	assert.Equal(t, domain.FacetScalar, f.Canton.Kind())

	f, err = applyFacet(f, "sort", "newest")
	require.NoError(t, err)
	assert.Equal(t, domain.SortNewest, f.SortBy)

	_, err = applyFacet(f, "sort", "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidSortMode)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "all", false},
		{"Products", "products", false},
		{"businesses", "businesses", false},
		{"shops", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitialFilters(t *testing.T) {
	provincia, canton, sortBy = "Limón", "Talamanca", "popularity"
	t.Cleanup(func() { provincia, canton, sortBy = "", "", "" })

	f, err := initialFilters()
	require.NoError(t, err)
	assert.Equal(t, "Limón", f.Provincia.First())
	assert.Equal(t, "Talamanca", f.Canton.First())
	assert.Equal(t, domain.SortPopularity, f.SortBy)
}

func TestRenderer_Colones(t *testing.T) {
	r := newRenderer(io.Discard)
	assert.True(t, strings.HasPrefix(r.colones(4500), "₡"))
	assert.Contains(t, r.colones(0), "0")
}
