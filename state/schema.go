package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSchema        = errors.New("invalid schema")
	ErrSchemaNameMismatch   = errors.New("schema names differ")
	ErrSchemaFieldRemoved   = errors.New("schema field removed")
	ErrSchemaFieldReordered = errors.New("schema field reordered or inserted")
	ErrSchemaFieldRetyped   = errors.New("schema field type changed")
	ErrUnknownField         = errors.New("unknown schema field")
)

// layoutKey stores the JSON layout of a schema inside its own region. Field slots are small
// integers, so the hashed key cannot collide with them in practice.
var layoutKey = crypto.Keccak256Hash([]byte("diamond.schema.layout"))

// Field is one entry of a shared schema. Its slot is its index.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Schema is a shared storage layout. Every facet that reads it must declare the same fields in
// the same order; a new version may only append fields at the end.
type Schema struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// RegionID returns the schema-bound region of s.
func (s Schema) RegionID() RegionID {
	return RegionID{Kind: KindSchema, Slot: crypto.Keccak256Hash([]byte(s.Name))}
}

// Validate checks the schema is well-formed: a name, and unique, non-empty field names.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("schema name is empty: %w", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema %s field %d has no name: %w", s.Name, i, ErrInvalidSchema)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s declares %s twice: %w", s.Name, f.Name, ErrInvalidSchema)
		}
		seen[f.Name] = struct{}{}
	}

	return nil
}

// CheckAppendOnly reports whether next is a valid successor of prev: same name, and prev's
// fields form an unchanged prefix of next's fields.
func CheckAppendOnly(prev, next Schema) error {
	if prev.Name != next.Name {
		return fmt.Errorf("%q vs %q: %w", prev.Name, next.Name, ErrSchemaNameMismatch)
	}

	nextIdx := make(map[string]int, len(next.Fields))
	for i, f := range next.Fields {
		nextIdx[f.Name] = i
	}

	for i, pf := range prev.Fields {
		j, present := nextIdx[pf.Name]
		switch {
		case !present:
			return fmt.Errorf("schema %s field %q (slot %d): %w", prev.Name, pf.Name, i, ErrSchemaFieldRemoved)
		case j != i:
			return fmt.Errorf("schema %s field %q moved from slot %d to %d: %w", prev.Name, pf.Name, i, j, ErrSchemaFieldReordered)
		case next.Fields[j].Type != pf.Type:
			return fmt.Errorf("schema %s field %q %s -> %s: %w", prev.Name, pf.Name, pf.Type, next.Fields[j].Type, ErrSchemaFieldRetyped)
		}
	}

	return nil
}

// LoadSchema reads a YAML schema file.
func LoadSchema(path string) (Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}

	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Schema{}, fmt.Errorf("parse schema %s: %w", path, err)
	}

	return s, s.Validate()
}

// Shared is a facet's bound view of a shared schema region.
type Shared struct {
	Region

	schema Schema
	slots  map[string]common.Hash
}

// Bind validates a facet's declaration of schema against the layout recorded in s and returns
// a view over the region.
//
// The first declaration records the layout. Later declarations must either be a prefix of the
// recorded layout (a facet built against an older version) or extend it by appending fields, in
// which case the recorded layout is upgraded. Anything else is rejected: reordering or inserting
// fields would shift every later field onto a slot holding someone else's data.
func Bind(s Storage, schema Schema) (*Shared, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	region := Open(s, schema.RegionID())
	recorded, found, err := loadLayout(region, schema.Name)
	if err != nil {
		return nil, err
	}

	switch {
	case !found:
		if err := storeLayout(region, schema); err != nil {
			return nil, err
		}
	case len(schema.Fields) <= len(recorded.Fields):
		if err := CheckAppendOnly(schema, recorded); err != nil {
			return nil, err
		}
	default:
		if err := CheckAppendOnly(recorded, schema); err != nil {
			return nil, err
		}
		if err := storeLayout(region, schema); err != nil {
			return nil, err
		}
	}

	slots := make(map[string]common.Hash, len(schema.Fields))
	for i, f := range schema.Fields {
		slots[f.Name] = common.BigToHash(big.NewInt(int64(i)))
	}

	return &Shared{Region: region, schema: schema, slots: slots}, nil
}

// RecordedLayout returns the layout stored for the named schema, if any.
func RecordedLayout(s Storage, name string) (Schema, bool, error) {
	return loadLayout(Open(s, Schema{Name: name}.RegionID()), name)
}

// Schema returns the declaration this view was bound with.
func (sh *Shared) Schema() Schema {
	return sh.schema
}

// Slot returns the storage key of field.
func (sh *Shared) Slot(field string) (common.Hash, error) {
	slot, ok := sh.slots[field]
	if !ok {
		return common.Hash{}, fmt.Errorf("schema %s field %q: %w", sh.schema.Name, field, ErrUnknownField)
	}

	return slot, nil
}

// MustSlot is like Slot but panics on an undeclared field.
func (sh *Shared) MustSlot(field string) common.Hash {
	slot, err := sh.Slot(field)
	if err != nil {
		panic(err)
	}

	return slot
}

func loadLayout(r Region, name string) (Schema, bool, error) {
	b, ok := r.Get(layoutKey)
	if !ok {
		return Schema{}, false, nil
	}

	var fields []Field
	if err := json.Unmarshal(b, &fields); err != nil {
		return Schema{}, false, fmt.Errorf("decode recorded layout of schema %s: %w", name, err)
	}

	return Schema{Name: name, Fields: fields}, true, nil
}

func storeLayout(r Region, s Schema) error {
	b, err := json.Marshal(s.Fields)
	if err != nil {
		return err
	}
	r.Set(layoutKey, b)

	return nil
}
