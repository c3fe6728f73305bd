// Package search filters properties. The same Criteria drives the in-memory
// Filter and the SQL predicate used by the PostgreSQL repository.
package search

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"rentalhub/internal/domain"

	"github.com/shopspring/decimal"
)

// Criteria are all optional; absent criteria match everything.
type Criteria struct {
	Term        string // matched against name, description, location
	Category    string
	Location    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	IsAvailable *bool
}

// ParseCriteria reads q, category, location, min_price, max_price and is_available.
// Unparsable or out-of-range prices are ignored; is_available honours only "true" and "false".
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{
		Term:     strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if d, err := ParseDecimal(q.Get("min_price")); err == nil {
		c.MinPrice = &d
	}
	if d, err := ParseDecimal(q.Get("max_price")); err == nil {
		c.MaxPrice = &d
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("is_available"))) {
	case "true":
		v := true
		c.IsAvailable = &v
	case "false":
		v := false
		c.IsAvailable = &v
	}
	return c
}

// Available returns c restricted to available properties.
func (c Criteria) Available() Criteria {
	v := true
	c.IsAvailable = &v
	return c
}

// Match reports whether p satisfies every criterion.
func (c Criteria) Match(p *domain.Property) bool {
	if c.Term != "" {
		term := strings.ToLower(c.Term)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Location), term) {
			return false
		}
	}
	if c.Category != "" && !strings.EqualFold(string(p.Category), c.Category) {
		return false
	}
	if c.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(c.Location)) {
		return false
	}
	if c.MinPrice != nil && p.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && p.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	if c.IsAvailable != nil && p.IsAvailable != *c.IsAvailable {
		return false
	}
	return true
}

// Filter returns the matching properties newest first (ties broken by id, descending).
// The input slice is not modified.
func Filter(all []domain.Property, c Criteria) []domain.Property {
	out := make([]domain.Property, 0, len(all))
	for i := range all {
		if c.Match(&all[i]) {
			out = append(out, all[i])
		}
	}
	SortNewestFirst(out)
	return out
}

func SortNewestFirst(props []domain.Property) {
	sort.SliceStable(props, func(i, j int) bool {
		if !props[i].CreatedAt.Equal(props[j].CreatedAt) {
			return props[i].CreatedAt.After(props[j].CreatedAt)
		}
		return props[i].ID > props[j].ID
	})
}

// Where renders c as a SQL predicate over the properties table aliased as alias.
// Placeholders are numbered after the args already present; the new args are appended.
// An empty string means no predicate.
func (c Criteria) Where(alias string, args []interface{}) (string, []interface{}) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var conds []string
	if c.Term != "" {
		ph := next("%" + escapeLike(c.Term) + "%")
		conds = append(conds, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s)",
			col("name"), ph, col("description"), ph, col("location"), ph))
	}
	if c.Category != "" {
		conds = append(conds, fmt.Sprintf("LOWER(%s) = LOWER(%s)", col("category"), next(c.Category)))
	}
	if c.Location != "" {
		conds = append(conds, fmt.Sprintf("%s ILIKE %s", col("location"), next("%"+escapeLike(c.Location)+"%")))
	}
	if c.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("%s >= %s", col("price"), next(*c.MinPrice)))
	}
	if c.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("%s <= %s", col("price"), next(*c.MaxPrice)))
	}
	if c.IsAvailable != nil {
		conds = append(conds, fmt.Sprintf("%s = %s", col("is_available"), next(*c.IsAvailable)))
	}
	return strings.Join(conds, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
