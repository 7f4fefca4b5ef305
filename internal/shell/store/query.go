package store

import (
	"strings"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Query Building
// =============================================================================

// where accumulates AND-ed conditions with their bind arguments.
type where struct {
	conds []string
	args  []any
	err   error
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds "column IN (...)" for a non-empty value set.
func (w *where) in(column string, values []string) {
	if len(values) == 0 || w.err != nil {
		return
	}
	cond, args, err := sqlx.In(column+" IN (?)", values)
	if err != nil {
		w.err = err
		return
	}
	w.add(cond, args...)
}

// search adds an accent and case-insensitive substring match on a folded column.
func (w *where) search(column, text string) {
	needle := foldSearch(text)
	if needle == "" {
		return
	}
	w.add(column+` LIKE ? ESCAPE '\'`, "%"+escapeLike(needle)+"%")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy maps a sort mode onto an ORDER BY clause. Ties fall back to id so
// consecutive pages never overlap.
func orderBy(mode domain.SortMode, alias string) string {
	switch mode {
	case domain.SortRandom:
		return " ORDER BY RANDOM()"
	case domain.SortPopularity:
		return " ORDER BY " + alias + "contact_count DESC, " + alias + "created_at DESC, " + alias + "id DESC"
	default:
		return " ORDER BY " + alias + "created_at DESC, " + alias + "id DESC"
	}
}

func limitOffset(p domain.Page) (string, []any) {
	p = p.Normalize()
	return " LIMIT ? OFFSET ?", []any{p.Size, p.Offset()}
}

// searchText is the folded text stored alongside an entity for search.
func searchText(parts ...string) string {
	return foldSearch(strings.Join(parts, " "))
}

func foldSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(domain.FoldAccents(s)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
