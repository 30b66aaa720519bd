// Package catalog provides the fixed vendor, miner-type and location value
// sets the synthetic scan pipeline draws from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogRawData []byte

// Center is the geographic point devices are scattered around.
type Center struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Values holds every fixed value set.
type Values struct {
	Vendors    []string `yaml:"vendors" json:"vendors"`
	MinerTypes []string `yaml:"miner_types" json:"minerTypes"`
	Cities     []string `yaml:"cities" json:"cities"`
	Region     string   `yaml:"region" json:"region"`
	Country    string   `yaml:"country" json:"country"`
	Center     Center   `yaml:"center" json:"center"`
}

// Catalog provides lazy-loaded access to the embedded value catalog.
type Catalog struct {
	once   sync.Once
	raw    []byte
	values Values
	err    error
}

// NewCatalog creates a new Catalog that will parse the embedded YAML on first access.
func NewCatalog() *Catalog {
	return &Catalog{raw: catalogRawData}
}

// Parse creates a Catalog from caller-supplied YAML.
func Parse(data []byte) *Catalog {
	return &Catalog{raw: data}
}

// Values returns a copy of the catalog values.
func (c *Catalog) Values() (Values, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return Values{}, c.err
	}
	v := c.values
	v.Vendors = append([]string(nil), c.values.Vendors...)
	v.MinerTypes = append([]string(nil), c.values.MinerTypes...)
	v.Cities = append([]string(nil), c.values.Cities...)
	return v, nil
}

// MustValues is Values for the embedded catalog, which is validated by tests.
func MustValues() Values {
	v, err := NewCatalog().Values()
	if err != nil {
		panic(err)
	}
	return v
}

// load parses the YAML catalog data.
func (c *Catalog) load() {
	var v Values
	if err := yaml.Unmarshal(c.raw, &v); err != nil {
		c.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	if err := v.validate(); err != nil {
		c.err = fmt.Errorf("catalog: %w", err)
		return
	}
	c.values = v
}

func (v Values) validate() error {
	switch {
	case len(v.Vendors) == 0:
		return errors.New("no vendors")
	case len(v.MinerTypes) == 0:
		return errors.New("no miner types")
	case len(v.Cities) == 0:
		return errors.New("no cities")
	}
	return nil
}
