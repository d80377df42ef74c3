// Package catalog holds the static mapping of domains to data products and
// the per-product column alias table. Both are embedded YAML documents parsed
// once; nothing here is mutated at runtime.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

//go:embed aliases.yaml
var aliasesYAML []byte

// Domain is one of the top-level categories grouping data products.
type Domain struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Products    []string `yaml:"products"`
}

// Aliases maps a logical field name to candidate column names in priority order.
type Aliases map[string][]string

type catalogDoc struct {
	Domains []Domain `yaml:"domains"`
}

type aliasesDoc struct {
	Products map[string]Aliases `yaml:"products"`
}

// Catalog is the immutable domain/product mapping plus alias table.
type Catalog struct {
	domains   []Domain
	byKey     map[string]int
	byProduct map[string]string
	aliases   map[string]Aliases
}

// ErrDuplicateProduct is returned by Validate when a product id is listed
// under more than one domain.
var ErrDuplicateProduct = errors.New("product listed in more than one domain")

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(catalogYAML, aliasesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
})

// Default returns the embedded CHEDS catalog.
func Default() *Catalog {
	return defaultCatalog()
}

// Parse builds a Catalog from a domain document and an alias document.
// aliasDoc may be empty.
func Parse(domainDoc, aliasDoc []byte) (*Catalog, error) {
	var cd catalogDoc
	if err := yaml.Unmarshal(domainDoc, &cd); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	var ad aliasesDoc
	if len(aliasDoc) > 0 {
		if err := yaml.Unmarshal(aliasDoc, &ad); err != nil {
			return nil, fmt.Errorf("parsing aliases: %w", err)
		}
	}

	c := &Catalog{
		domains:   cd.Domains,
		byKey:     make(map[string]int, len(cd.Domains)),
		byProduct: make(map[string]string),
		aliases:   ad.Products,
	}
	if c.aliases == nil {
		c.aliases = map[string]Aliases{}
	}

	for i, d := range cd.Domains {
		if d.Name == "" {
			return nil, fmt.Errorf("domain %d has no name", i)
		}
		c.byKey[strings.ToLower(d.Name)] = i
		if d.Key != "" {
			c.byKey[strings.ToLower(d.Key)] = i
		}
		for _, p := range d.Products {
			// first listing wins; Validate reports the conflict
			if _, seen := c.byProduct[p]; !seen {
				c.byProduct[p] = d.Name
			}
		}
	}

	return c, nil
}

// Validate checks that every product id appears in at most one domain.
func (c *Catalog) Validate() error {
	seen := make(map[string]string)
	for _, d := range c.domains {
		for _, p := range d.Products {
			if other, ok := seen[p]; ok {
				return fmt.Errorf("%w: %s in %q and %q", ErrDuplicateProduct, p, other, d.Name)
			}
			seen[p] = d.Name
		}
	}
	return nil
}

// Domains returns all domains in display order.
func (c *Catalog) Domains() []Domain {
	out := make([]Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// Domain looks a domain up by name or short key, case-insensitively.
func (c *Catalog) Domain(nameOrKey string) (Domain, bool) {
	i, ok := c.byKey[strings.ToLower(strings.TrimSpace(nameOrKey))]
	if !ok {
		return Domain{}, false
	}
	return c.domains[i], true
}

// Products returns the ordered product ids for a domain, or nil if unknown.
func (c *Catalog) Products(nameOrKey string) []string {
	d, ok := c.Domain(nameOrKey)
	if !ok {
		return nil
	}
	return append([]string(nil), d.Products...)
}

// DomainOf returns the name of the domain listing productID.
func (c *Catalog) DomainOf(productID string) (string, bool) {
	name, ok := c.byProduct[productID]
	return name, ok
}

// TotalProducts returns the number of catalogued products across all domains.
func (c *Catalog) TotalProducts() int {
	n := 0
	for _, d := range c.domains {
		n += len(d.Products)
	}
	return n
}

// Aliases returns the alias table for productID (nil when none is declared).
func (c *Catalog) Aliases(productID string) Aliases {
	return c.aliases[productID]
}
