package prize

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed prizes.yaml
var defaultPrizes []byte

type Kind string

const (
	KindWin  Kind = "win"
	KindLose Kind = "lose"
)

func (k Kind) valid() bool { return k == KindWin || k == KindLose }

// Prize is a presentation record. It carries no authority over the outcome.
type Prize struct {
	Label      string `yaml:"label"`
	Sub        string `yaml:"sub"`
	Kind       Kind   `yaml:"kind"`
	Background string `yaml:"bg"`
	Weight     int    `yaml:"weight"`
}

var ErrEmptyCatalog = errors.New("prize catalog is empty")

// Catalog is an ordered, read-only list of prizes.
type Catalog struct {
	prizes []Prize
	total  int
}

// New loads the embedded catalog, or the YAML file at overridePath when set.
func New(overridePath string) (*Catalog, error) {
	raw := defaultPrizes
	if p := strings.TrimSpace(overridePath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read prizes: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultPrizes)
	if err != nil {
		panic(fmt.Sprintf("embedded prize catalog: %v", err))
	}
	return c
}

func Parse(raw []byte) (*Catalog, error) {
	var doc struct {
		Prizes []Prize `yaml:"prizes"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse prizes: %w", err)
	}
	if len(doc.Prizes) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{prizes: doc.Prizes}
	for i := range c.prizes {
		p := &c.prizes[i]
		if !p.Kind.valid() {
			return nil, fmt.Errorf("prize %d (%s): unknown kind %q", i, p.Label, p.Kind)
		}
		if p.Weight <= 0 {
			p.Weight = 1
		}
		c.total += p.Weight
	}
	return c, nil
}

// Lookup returns the first prize of the given kind.
func (c *Catalog) Lookup(kind string) (Prize, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	for _, p := range c.prizes {
		if p.Kind == k {
			return p, true
		}
	}
	return Prize{}, false
}

// Placeholder draws a cosmetic prize by weight. Only for display before the
// server has reported a kind; never use it to decide an outcome.
func (c *Catalog) Placeholder(rng *rand.Rand) Prize {
	var n int
	if rng != nil {
		n = rng.IntN(c.total)
	} else {
		n = rand.IntN(c.total)
	}
	for _, p := range c.prizes {
		if n < p.Weight {
			return p
		}
		n -= p.Weight
	}
	return c.prizes[len(c.prizes)-1]
}
