// Package catalog serves the fixed vendor, miner-type and city value sets
// over HTTP so clients can build filters without running a scan.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	pkgcatalog "github.com/HerbHall/minerwatch/pkg/catalog"
)

// Set names one of the catalog's value lists.
type Set string

const (
	SetVendors    Set = "vendors"
	SetMinerTypes Set = "miner-types"
	SetCities     Set = "cities"
)

// Sets lists every Set in display order.
var Sets = []Set{SetVendors, SetMinerTypes, SetCities}

// ParseSet validates a set name from a URL path.
func ParseSet(s string) (Set, error) {
	if slices.Contains(Sets, Set(s)) {
		return Set(s), nil
	}
	return "", fmt.Errorf("unknown catalog set %q", s)
}

// Engine answers lookups against a loaded catalog.
type Engine struct {
	cat *pkgcatalog.Catalog
}

// NewEngine creates an engine backed by the given catalog.
func NewEngine(cat *pkgcatalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Values returns the whole catalog.
func (e *Engine) Values() (pkgcatalog.Values, error) {
	return e.cat.Values()
}

// List returns set's values in Persian collation order.
func (e *Engine) List(set Set) ([]string, error) {
	v, err := e.cat.Values()
	if err != nil {
		return nil, err
	}

	var out []string
	switch set {
	case SetVendors:
		out = v.Vendors
	case SetMinerTypes:
		out = v.MinerTypes
	case SetCities:
		out = v.Cities
	default:
		return nil, fmt.Errorf("unknown catalog set %q", set)
	}

	col := collate.New(language.Persian)
	col.SortStrings(out)
	return out, nil
}

// MinerVendors returns the vendors that build at least one known miner
// model, matched by model-name prefix.
func (e *Engine) MinerVendors() ([]string, error) {
	v, err := e.cat.Values()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, vendor := range v.Vendors {
		for _, model := range v.MinerTypes {
			if strings.HasPrefix(model, vendor+" ") {
				out = append(out, vendor)
				break
			}
		}
	}
	return out, nil
}
