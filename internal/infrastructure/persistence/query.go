package persistence

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopfront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortSpec whitelists the columns a list endpoint may sort by.
type sortSpec struct {
	columns  []string
	fallback string
	desc     bool     // direction when none or an unknown one is given
	then     []string // ascending tie-breakers
}

// listQuery narrows a table for the admin list endpoints.
type listQuery struct {
	sort   sortSpec
	search []string          // columns matched by Filter.Search
	where  map[string]string // Filter.Filters key to a one-placeholder condition
}

var (
	productList = listQuery{
		sort: sortSpec{
			columns:  []string{"created_at", "updated_at", "code", "name", "price", "sort_order", "status"},
			fallback: "sort_order",
			then:     []string{"sort_order", "name"},
		},
		search: []string{"name", "code"},
		where: map[string]string{
			"status":    "status = ?",
			"min_price": "price >= ?",
			"max_price": "price <= ?",
		},
	}
	orderList = listQuery{
		sort: sortSpec{
			columns:  []string{"created_at", "updated_at", "order_number", "customer_name", "total_amount", "status"},
			fallback: "created_at",
			desc:     true,
		},
		search: []string{"order_number", "customer_name", "customer_email"},
		where: map[string]string{
			"status":       "status = ?",
			"created_from": "created_at >= ?",
			"created_to":   "created_at <= ?",
		},
	}
)

// by turns user input into an ORDER BY column. Unknown columns fall back,
// so raw input never reaches SQL.
func (s sortSpec) by(column, dir string) clause.OrderByColumn {
	column = strings.TrimSpace(column)
	if !slices.Contains(s.columns, column) {
		column = s.fallback
	}
	desc := s.desc
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "ASC":
		desc = false
	case "DESC":
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}
}

func (s sortSpec) apply(db *gorm.DB, column, dir string) *gorm.DB {
	primary := s.by(column, dir)
	db = db.Order(primary)
	for _, col := range s.then {
		if col != primary.Column.Name {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}})
		}
	}
	return db
}

// filtered applies search and filters; it is shared by list and count so
// both see the same rows.
func (l listQuery) filtered(db *gorm.DB, f shared.Filter) *gorm.DB {
	if f.Search != "" && len(l.search) > 0 {
		conds := make([]string, len(l.search))
		args := make([]any, len(l.search))
		pattern := likePattern(f.Search)
		for i, col := range l.search {
			conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	for key, value := range f.Filters {
		if cond, ok := l.where[key]; ok {
			db = db.Where(cond, value)
		}
	}
	return db
}

func (l listQuery) paged(db *gorm.DB, f shared.Filter) *gorm.DB {
	db = l.filtered(db, f)
	if f.Page > 0 && f.PageSize > 0 {
		db = db.Offset(f.Offset()).Limit(f.PageSize)
	}
	return l.sort.apply(db, f.OrderBy, f.OrderDir)
}

// likePattern builds a case-insensitive LIKE pattern with wildcards escaped.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(search))) + "%"
}

// notFound maps gorm's missing-row error onto the domain one.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
