package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/core/listing"
	"github.com/emprendecr/emprende/internal/shell/client"
	shelllisting "github.com/emprendecr/emprende/internal/shell/listing"
)

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// view is one kind of listing on screen. flush renders the items that
// arrived since the last flush.
type view interface {
	load(ctx context.Context, filters domain.Filters) error
	more(ctx context.Context) (bool, error)
	flush(r *renderer)
	hasMore() bool
}

// =============================================================================
// Browser
// =============================================================================

// browser reads commands and keeps one listing session per filter set.
type browser struct {
	api         *client.Client
	out         *renderer
	opts        []shelllisting.Option
	logger      *slog.Logger
	kind        string
	filters     domain.Filters
	current     view
	countryCode string
}

func newBrowser(api *client.Client, out io.Writer, kind string, filters domain.Filters, countryCode string, logger *slog.Logger, opts ...shelllisting.Option) *browser {
	return &browser{
		api:         api,
		out:         newRenderer(out),
		opts:        opts,
		logger:      logger,
		kind:        kind,
		filters:     filters,
		countryCode: countryCode,
	}
}

// run loads the initial listing and executes commands from in until quit
// or end of input.
func (b *browser) run(ctx context.Context, in io.Reader) error {
	if err := b.reset(ctx); err != nil {
		b.out.error(err)
	}
	b.out.prompt()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := b.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			b.out.error(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.out.prompt()
	}
	return scanner.Err()
}

// exec runs one command line. Every facet change starts a new session.
func (b *browser) exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		b.out.help()
		return nil
	case "more", "m":
		return b.more(ctx)
	case "type":
		kind, err := parseKind(arg)
		if err != nil {
			return err
		}
		b.kind = kind
		return b.reset(ctx)
	case "open":
		return b.open(ctx, arg)
	case "contact":
		return b.contact(ctx, arg)
	case "filters":
		b.out.filters(b.filters)
		return nil
	case "find":
		return b.find(arg)
	}

	filters, err := applyFacet(b.filters, strings.ToLower(cmd), arg)
	if err != nil {
		return err
	}
	b.filters = filters
	b.checkCanton()
	return b.reset(ctx)
}

// find narrows the businesses already on screen without fetching.
func (b *browser) find(text string) error {
	v, ok := b.current.(*businessView)
	if !ok {
		return errors.New(`find works on the businesses listing, use "search" here`)
	}
	loaded := v.l.Snapshot().Items
	matches := listing.FilterBusinesses(loaded, text)
	for i, biz := range matches {
		b.out.business(i+1, biz)
	}
	b.out.notice(fmt.Sprintf("%d of %d loaded businesses match", len(matches), len(loaded)))
	return nil
}

// checkCanton warns when a single provincia is selected and the canton
// facet names a canton outside it. The query is sent unchanged.
func (b *browser) checkCanton() {
	if b.filters.Provincia.Kind() != domain.FacetScalar {
		return
	}
	p := b.filters.Provincia.First()
	for _, c := range b.filters.Canton.Values() {
		if !domain.IsCantonOf(p, c) {
			b.out.notice(fmt.Sprintf("canton %q is not in provincia %q", c, p))
		}
	}
}

func (b *browser) reset(ctx context.Context) error {
	if b.current == nil || b.viewKind() != b.kind {
		b.current = b.newView()
	}
	err := b.current.load(ctx, b.filters)
	b.current.flush(b.out)
	b.out.footer(b.current.hasMore())
	return err
}

func (b *browser) more(ctx context.Context) error {
	started, err := b.current.more(ctx)
	if err != nil {
		return err
	}
	if !started {
		b.out.notice("no more results")
		return nil
	}
	b.current.flush(b.out)
	b.out.footer(b.current.hasMore())
	return nil
}

func (b *browser) viewKind() string {
	switch v := b.current.(type) {
	case *businessView:
		return "businesses"
	case *mixedView:
		return string(v.content)
	default:
		return ""
	}
}

func (b *browser) newView() view {
	if b.kind == "businesses" {
		return &businessView{l: shelllisting.New[domain.Business]("businesses", b.api.ListBusinesses, b.opts...)}
	}
	return &mixedView{
		m:       shelllisting.NewMixed(b.api.ListProducts, b.api.ListServices, b.opts...),
		content: listing.ParseContentType(b.kind),
	}
}

// open prints the detail of the entity named by slug.
func (b *browser) open(ctx context.Context, slug string) error {
	e, err := b.resolve(ctx, slug)
	if err != nil {
		return err
	}
	b.out.detail(e)
	return nil
}

// contact records a contact event and prints the WhatsApp link of the
// entity named by slug.
func (b *browser) contact(ctx context.Context, slug string) error {
	e, err := b.resolve(ctx, slug)
	if err != nil {
		return err
	}

	var businessID, productID, serviceID, phone string
	switch v := e.(type) {
	case *domain.Business:
		businessID, phone = v.ID, v.WhatsApp
	case *domain.Product:
		businessID, productID, phone = v.BusinessID, v.ID, v.WhatsApp
	case *domain.Service:
		businessID, serviceID, phone = v.BusinessID, v.ID, v.WhatsApp
	}

	link, err := domain.WhatsAppURL(phone, b.countryCode, domain.ContactMessage(e.EntityName()))
	if err != nil {
		return fmt.Errorf("%s has no WhatsApp number", e.EntityName())
	}
	if err := b.api.RecordContact(ctx, businessID, productID, serviceID); err != nil {
		b.logger.Warn("failed to record contact", "slug", slug, "error", err)
	}
	b.out.link(link)
	return nil
}

// resolve looks slug up among the entity types of the current view.
func (b *browser) resolve(ctx context.Context, slug string) (domain.Entity, error) {
	if slug == "" {
		return nil, errors.New("usage: open <slug>")
	}
	var types []domain.EntityType
	switch b.kind {
	case "businesses":
		types = []domain.EntityType{domain.EntityBusiness}
	case "products":
		types = []domain.EntityType{domain.EntityProduct}
	case "services":
		types = []domain.EntityType{domain.EntityService}
	default:
		types = []domain.EntityType{domain.EntityProduct, domain.EntityService}
	}

	for _, t := range types {
		e, err := b.api.Resolve(ctx, t, slug)
		if errors.Is(err, client.ErrNotFound) {
			continue
		}
		return e, err
	}
	return nil, fmt.Errorf("%q not found", slug)
}

// =============================================================================
// Facets
// =============================================================================

// applyFacet sets the facet named by cmd. An empty value clears it; comma
// separated values select several.
func applyFacet(f domain.Filters, cmd, arg string) (domain.Filters, error) {
	switch cmd {
	case "provincia":
		return f.WithProvincia(facet(arg)), nil
	case "canton":
		return f.WithCanton(facet(arg)), nil
	case "category":
		return f.WithCategory(facet(arg)), nil
	case "search":
		return f.WithSearch(arg), nil
	case "sort":
		mode, err := domain.ParseSortMode(arg)
		if err != nil {
			return f, err
		}
		return f.WithSort(mode), nil
	default:
		return f, fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func facet(arg string) domain.FacetValue {
	return domain.Multi(strings.Split(arg, ",")...)
}

func parseKind(s string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case "businesses", "products", "services", "all":
		return k, nil
	case "":
		return "all", nil
	default:
		return "", fmt.Errorf("unknown type %q: want businesses, products, services or all", s)
	}
}

// =============================================================================
// Views
// =============================================================================

type businessView struct {
	l     *shelllisting.Listing[domain.Business]
	shown int
}

func (v *businessView) load(ctx context.Context, f domain.Filters) error {
	v.shown = 0
	return v.l.Load(ctx, f)
}

func (v *businessView) more(ctx context.Context) (bool, error) { return v.l.LoadMore(ctx) }

func (v *businessView) hasMore() bool { return v.l.Snapshot().HasMore() }

func (v *businessView) flush(r *renderer) {
	snap := v.l.Snapshot()
	for i := v.shown; i < len(snap.Items); i++ {
		r.business(i+1, snap.Items[i])
	}
	v.shown = len(snap.Items)
}

type mixedView struct {
	m        *shelllisting.Mixed
	content  listing.ContentType
	products int
	services int
}

func (v *mixedView) load(ctx context.Context, f domain.Filters) error {
	v.products, v.services = 0, 0
	return v.m.Load(ctx, f, v.content)
}

func (v *mixedView) more(ctx context.Context) (bool, error) { return v.m.LoadMore(ctx) }

func (v *mixedView) hasMore() bool { return v.m.HasMore() }

func (v *mixedView) flush(r *renderer) {
	snap := v.m.Snapshot()
	for i := v.products; i < len(snap.Products.Items); i++ {
		r.product(i+1, snap.Products.Items[i])
	}
	v.products = len(snap.Products.Items)
	for i := v.services; i < len(snap.Services.Items); i++ {
		r.service(i+1, snap.Services.Items[i])
	}
	v.services = len(snap.Services.Items)
}
