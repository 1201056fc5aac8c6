// Package metadata holds the declarative field-to-attribute mapping of
// each record type stored through the EAV engine. A Descriptor is the
// explicit, statically declared mapping table that replaces runtime
// field discovery: one binding per attribute id, each carrying its
// category and a pair of accessor closures, built once at startup and
// validated eagerly.
package metadata

import (
	"fmt"
	"time"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// binding maps one attribute id to one field of T. Exactly one
// getter/setter pair is populated, matching the category.
type binding[T any] struct {
	attrID   int64
	name     string
	category eav.Category
	enum     *Enum

	getValue func(*T) *string
	setValue func(*T, *string)
	getDate  func(*T) *time.Time
	setDate  func(*T, *time.Time)
	getList  func(*T) *string
	setList  func(*T, *string)
	getRef   func(*T) *int64
	setRef   func(*T, *int64)
}

// Descriptor declares how a record type T maps onto the EAV layout:
// its object-type id, an accessor to the embedded general-info header,
// and one binding per attribute id. Binding declaration order is
// preserved; it is the column order of every compiled query for T.
type Descriptor[T any] struct {
	name         string
	objectTypeID int64
	header       func(*T) *eav.Header

	bindings []*binding[T]
	byID     map[int64]*binding[T]
	declErr  error
}

// NewDescriptor starts the mapping table for T. The header accessor must
// return the record's embedded eav.Header.
func NewDescriptor[T any](name string, objectTypeID int64, header func(*T) *eav.Header) *Descriptor[T] {
	return &Descriptor[T]{
		name:         name,
		objectTypeID: objectTypeID,
		header:       header,
		byID:         make(map[int64]*binding[T]),
	}
}

// Value binds a scalar attribute id to a string field.
func (d *Descriptor[T]) Value(attrID int64, name string, get func(*T) *string, set func(*T, *string)) *Descriptor[T] {
	b := d.add(attrID, name, eav.CategoryValue)
	b.getValue, b.setValue = get, set
	return d
}

// Date binds a date attribute id to a time field.
func (d *Descriptor[T]) Date(attrID int64, name string, get func(*T) *time.Time, set func(*T, *time.Time)) *Descriptor[T] {
	b := d.add(attrID, name, eav.CategoryDate)
	b.getDate, b.setDate = get, set
	return d
}

// List binds an enumerated attribute id to a field holding one of the
// enum's codes.
func (d *Descriptor[T]) List(attrID int64, name string, enum *Enum, get func(*T) *string, set func(*T, *string)) *Descriptor[T] {
	b := d.add(attrID, name, eav.CategoryList)
	b.enum = enum
	b.getList, b.setList = get, set
	return d
}

// Reference binds a reference attribute id to a field holding another
// object's id.
func (d *Descriptor[T]) Reference(attrID int64, name string, get func(*T) *int64, set func(*T, *int64)) *Descriptor[T] {
	b := d.add(attrID, name, eav.CategoryReference)
	b.getRef, b.setRef = get, set
	return d
}

func (d *Descriptor[T]) add(attrID int64, name string, cat eav.Category) *binding[T] {
	b := &binding[T]{attrID: attrID, name: name, category: cat}
	if attrID <= 0 && d.declErr == nil {
		d.declErr = fmt.Errorf("%s: field %q has non-positive attribute id %d", d.name, name, attrID)
	}
	if prev, dup := d.byID[attrID]; dup && d.declErr == nil {
		d.declErr = fmt.Errorf("%s: attribute id %d declared by both %q and %q",
			d.name, attrID, prev.name, name)
	}
	d.bindings = append(d.bindings, b)
	d.byID[attrID] = b
	return b
}

// Validate checks the declaration for completeness: a positive
// object-type id, a header accessor, unique positive attribute ids, and
// well-formed enum tables. Called eagerly at registration.
func (d *Descriptor[T]) Validate() error {
	if d.objectTypeID <= 0 {
		return fmt.Errorf("%w: type %q", eav.ErrMissingTypeMetadata, d.name)
	}
	if d.header == nil {
		return fmt.Errorf("type %q has no header accessor", d.name)
	}
	if d.declErr != nil {
		return d.declErr
	}
	for _, b := range d.bindings {
		if b.category == eav.CategoryList {
			if b.enum == nil {
				return fmt.Errorf("%w: field %q has no option table",
					eav.ErrInvalidEnumMapping, b.name)
			}
			if err := b.enum.Err(); err != nil {
				return fmt.Errorf("field %q: %w", b.name, err)
			}
		}
	}
	return nil
}

// Header returns the record's embedded general-info header.
func (d *Descriptor[T]) Header(rec *T) *eav.Header { return d.header(rec) }

// TypeName returns the declared type name.
func (d *Descriptor[T]) TypeName() string { return d.name }

// ObjectTypeID returns the declared object-type id.
func (d *Descriptor[T]) ObjectTypeID() int64 { return d.objectTypeID }

// AttributeIDs returns the attribute ids of one category in declaration
// order.
func (d *Descriptor[T]) AttributeIDs(cat eav.Category) []int64 {
	var ids []int64
	for _, b := range d.bindings {
		if b.category == cat {
			ids = append(ids, b.attrID)
		}
	}
	return ids
}

// AllAttributeIDs returns every declared attribute id grouped by
// category: scalar, then date, then list, then reference.
func (d *Descriptor[T]) AllAttributeIDs() []int64 {
	var ids []int64
	for _, cat := range []eav.Category{eav.CategoryValue, eav.CategoryDate, eav.CategoryList, eav.CategoryReference} {
		ids = append(ids, d.AttributeIDs(cat)...)
	}
	return ids
}

// Categories returns the category of every declared attribute id.
func (d *Descriptor[T]) Categories() map[int64]eav.Category {
	out := make(map[int64]eav.Category, len(d.bindings))
	for _, b := range d.bindings {
		out[b.attrID] = b.category
	}
	return out
}

// CategoryOf returns the declared category of one attribute id.
func (d *Descriptor[T]) CategoryOf(attrID int64) (eav.Category, bool) {
	b, ok := d.byID[attrID]
	if !ok {
		return 0, false
	}
	return b.category, true
}
