// Package catalog holds the static item and species table keyed on the
// detector's class ids. A Catalog is built once at startup and shared
// read-only between the world model and the entity factory.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/teslashibe/go-forager/pkg/gametime"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Category is the broad detector category of an item
type Category string

const (
	CategoryPlayer Category = "PLAYER"
	CategoryObject Category = "OBJECT"
	CategoryMob    Category = "MOB"
)

// Kind selects the state machine a species runs
type Kind string

const (
	KindStatic     Kind = "static"
	KindRegrowable Kind = "regrowable"
	KindCycle      Kind = "cycle"
	KindTransient  Kind = "transient"
)

// DurationSpec is the YAML form of a gametime.Duration. Exactly one field
// should be set; an empty spec means Never.
type DurationSpec struct {
	Seconds       *float64 `yaml:"seconds,omitempty"`
	Days          *float64 `yaml:"days,omitempty"`
	NonWinterDays *float64 `yaml:"non_winter_days,omitempty"`
	Never         bool     `yaml:"never,omitempty"`
}

// Duration converts d to a gametime.Duration
func (d DurationSpec) Duration() gametime.Duration {
	switch {
	case d.Never:
		return gametime.Never()
	case d.NonWinterDays != nil:
		return gametime.NonWinterDays(*d.NonWinterDays)
	case d.Days != nil:
		return gametime.Days(*d.Days)
	case d.Seconds != nil:
		return gametime.Seconds(*d.Seconds)
	default:
		return gametime.Never()
	}
}

func (d DurationSpec) set() int {
	n := 0
	for _, ok := range []bool{d.Seconds != nil, d.Days != nil, d.NonWinterDays != nil, d.Never} {
		if ok {
			n++
		}
	}
	return n
}

// Item is one detector class
type Item struct {
	ID         int           `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	Category   Category      `yaml:"category" json:"category"`
	Species    string        `yaml:"species,omitempty" json:"species"`
	Pickable   bool          `yaml:"pickable,omitempty" json:"pickable"`
	StackSize  int           `yaml:"stack_size,omitempty" json:"stack_size,omitempty"`
	Durability float64       `yaml:"durability,omitempty" json:"durability,omitempty"`
	PerishTime *DurationSpec `yaml:"perish_time,omitempty" json:"-"`
}

// Spoils reports whether the item perishes
func (it Item) Spoils() bool {
	return it.PerishTime != nil && !it.PerishTime.Duration().IsNever()
}

// Stage is one leg of a cycling species
type Stage struct {
	State string       `yaml:"state"`
	Lasts DurationSpec `yaml:"lasts"`
}

// Species groups the class ids that show one logical object in its
// different visual states.
type Species struct {
	Name      string       `yaml:"-"`
	Kind      Kind         `yaml:"kind"`
	Ready     string       `yaml:"ready,omitempty"`
	Harvested string       `yaml:"harvested,omitempty"`
	Regrowth  DurationSpec `yaml:"regrowth,omitempty"`
	Stages    []Stage      `yaml:"stages,omitempty"`
	Lifetime  DurationSpec `yaml:"lifetime,omitempty"`

	// States lists every class id of the species, ascending
	States []int `yaml:"-"`
}

// Catalog is the immutable lookup table. Build it with Parse, Load or
// Default and never mutate it afterwards.
type Catalog struct {
	items   map[int]*Item
	byName  map[string]*Item
	species map[string]*Species
}

type document struct {
	Items   []Item              `yaml:"items"`
	Species map[string]*Species `yaml:"species"`
}

// Default returns the catalog embedded in the binary
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a catalog from YAML bytes and validates its references
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		items:   make(map[int]*Item, len(doc.Items)),
		byName:  make(map[string]*Item, len(doc.Items)),
		species: make(map[string]*Species),
	}

	for i := range doc.Items {
		it := doc.Items[i]
		if it.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidCatalog, it.ID)
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate class id %d", ErrInvalidCatalog, it.ID)
		}
		if _, dup := c.byName[it.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate item name %q", ErrInvalidCatalog, it.Name)
		}
		switch it.Category {
		case CategoryPlayer, CategoryObject, CategoryMob:
		case "":
			it.Category = CategoryObject
		default:
			return nil, fmt.Errorf("%w: item %q has unknown category %q", ErrInvalidCatalog, it.Name, it.Category)
		}
		if it.Species == "" {
			it.Species = it.Name
		}
		c.items[it.ID] = &it
		c.byName[it.Name] = &it
	}

	for name, sp := range doc.Species {
		if sp == nil {
			return nil, fmt.Errorf("%w: species %q is empty", ErrInvalidCatalog, name)
		}
		sp.Name = name
		c.species[name] = sp
	}

	// Items without a declared species become static single-form species
	for _, it := range c.items {
		sp, ok := c.species[it.Species]
		if !ok {
			sp = &Species{Name: it.Species, Kind: KindStatic}
			c.species[it.Species] = sp
		}
		sp.States = append(sp.States, it.ID)
	}

	for _, sp := range c.species {
		sort.Ints(sp.States)
		if err := c.validateSpecies(sp); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) validateSpecies(sp *Species) error {
	if len(sp.States) == 0 {
		return fmt.Errorf("%w: species %q has no items", ErrInvalidCatalog, sp.Name)
	}
	member := func(name string) error {
		it, ok := c.byName[name]
		if !ok {
			return fmt.Errorf("%w: species %q references unknown item %q", ErrInvalidCatalog, sp.Name, name)
		}
		if it.Species != sp.Name {
			return fmt.Errorf("%w: item %q is not part of species %q", ErrInvalidCatalog, name, sp.Name)
		}
		return nil
	}

	switch sp.Kind {
	case KindStatic:
	case KindRegrowable:
		if err := member(sp.Ready); err != nil {
			return err
		}
		if err := member(sp.Harvested); err != nil {
			return err
		}
		if sp.Regrowth.set() != 1 {
			return fmt.Errorf("%w: species %q needs exactly one regrowth duration", ErrInvalidCatalog, sp.Name)
		}
		if err := c.statesCovered(sp, sp.Ready, sp.Harvested); err != nil {
			return err
		}
	case KindCycle:
		if len(sp.Stages) < 2 {
			return fmt.Errorf("%w: cycling species %q needs at least two stages", ErrInvalidCatalog, sp.Name)
		}
		names := make([]string, len(sp.Stages))
		for i, st := range sp.Stages {
			if err := member(st.State); err != nil {
				return err
			}
			names[i] = st.State
		}
		if err := c.statesCovered(sp, names...); err != nil {
			return err
		}
	case KindTransient:
		if sp.Lifetime.set() != 1 {
			return fmt.Errorf("%w: transient species %q needs a lifetime", ErrInvalidCatalog, sp.Name)
		}
	default:
		return fmt.Errorf("%w: species %q has unknown kind %q", ErrInvalidCatalog, sp.Name, sp.Kind)
	}
	return nil
}

// statesCovered rejects items of sp that its state machine cannot take
func (c *Catalog) statesCovered(sp *Species, names ...string) error {
	allowed := make(map[int]bool, len(names))
	for _, name := range names {
		allowed[c.byName[name].ID] = true
	}
	for _, id := range sp.States {
		if !allowed[id] {
			return fmt.Errorf("%w: item %q of species %q is not one of its states",
				ErrInvalidCatalog, c.items[id].Name, sp.Name)
		}
	}
	return nil
}

// clone returns a copy of sp sharing no slices with the catalog
func (sp *Species) clone() *Species {
	out := *sp
	out.Stages = append([]Stage(nil), sp.Stages...)
	out.States = append([]int(nil), sp.States...)
	return &out
}

// Item returns the item for a class id
func (c *Catalog) Item(id int) (Item, bool) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Has reports whether id is a known class
func (c *Catalog) Has(id int) bool {
	_, ok := c.Item(id)
	return ok
}

// ItemByName returns the item with the given name
func (c *Catalog) ItemByName(name string) (Item, bool) {
	it, ok := c.byName[name]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// ClassID returns the class id for an item name
func (c *Catalog) ClassID(name string) (int, error) {
	it, ok := c.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownItem, name)
	}
	return it.ID, nil
}

// MustClassID is ClassID for names known at compile time
func (c *Catalog) MustClassID(name string) int {
	id, err := c.ClassID(name)
	if err != nil {
		panic(err)
	}
	return id
}

// Species returns a copy of the species with the given name
func (c *Catalog) Species(name string) (*Species, bool) {
	sp, ok := c.species[name]
	if !ok {
		return nil, false
	}
	return sp.clone(), true
}

// SpeciesOf returns a copy of the species a class id belongs to
func (c *Catalog) SpeciesOf(id int) (*Species, error) {
	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownClass, id)
	}
	return c.species[it.Species].clone(), nil
}

// AlternateIDs returns the class ids showing the same species as id,
// including id itself.
func (c *Catalog) AlternateIDs(id int) []int {
	it, ok := c.items[id]
	if !ok {
		return nil
	}
	return append([]int(nil), c.species[it.Species].States...)
}

// IsPlayer reports whether a class id is the player avatar
func (c *Catalog) IsPlayer(id int) bool {
	it, ok := c.items[id]
	return ok && it.Category == CategoryPlayer
}

// Items returns every item ordered by class id
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of class ids
func (c *Catalog) Len() int {
	return len(c.items)
}
