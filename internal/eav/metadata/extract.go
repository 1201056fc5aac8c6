package metadata

import (
	"fmt"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Extract projects a typed record into its generic attribute
// representation. It is a pure projection: no I/O, and calling it twice
// on the same record yields identical output. Nil fields are skipped
// entirely, keeping the output maps sparse.
func (d *Descriptor[T]) Extract(rec *T) (*eav.Mutable, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", eav.ErrInvalidArgument)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	m := eav.NewMutable()
	m.ObjectTypeID = d.objectTypeID

	h := d.header(rec)
	m.ObjectID = h.ObjectID
	m.ParentID = copyInt(h.ParentID)
	m.Name = copyStr(h.Name)
	m.Description = copyStr(h.Description)

	for _, b := range d.bindings {
		switch b.category {
		case eav.CategoryValue:
			if v := b.getValue(rec); v != nil {
				m.Values[b.attrID] = *v
			}
		case eav.CategoryDate:
			if v := b.getDate(rec); v != nil {
				m.DateValues[b.attrID] = *v
			}
		case eav.CategoryList:
			if code := b.getList(rec); code != nil {
				optionID, ok := b.enum.IDOf(*code)
				if !ok {
					return nil, fmt.Errorf("%w: %s.%s holds %q which is not a declared option",
						eav.ErrInvalidEnumMapping, d.name, b.name, *code)
				}
				m.ListValues[b.attrID] = optionID
			}
		case eav.CategoryReference:
			if v := b.getRef(rec); v != nil {
				m.References[b.attrID] = *v
			}
		}
	}
	return m, nil
}

// Materialize is the inverse of Extract: it populates the typed record
// from whichever attribute ids the generic record carries. Ids absent
// from the generic record leave the corresponding fields at their zero
// value. An id found under a different category than declared fails
// with ErrUnresolvableAttribute.
func (d *Descriptor[T]) Materialize(m *eav.Mutable, rec *T) error {
	if m == nil || rec == nil {
		return fmt.Errorf("%w: nil record", eav.ErrInvalidArgument)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	h := d.header(rec)
	h.ObjectID = m.ObjectID
	h.ParentID = copyInt(m.ParentID)
	h.Name = copyStr(m.Name)
	h.Description = copyStr(m.Description)

	for _, b := range d.bindings {
		switch b.category {
		case eav.CategoryValue:
			if v, ok := m.Values[b.attrID]; ok {
				b.setValue(rec, &v)
			} else if m.Has(b.attrID) {
				return d.categoryMismatch(b)
			}
		case eav.CategoryDate:
			if v, ok := m.DateValues[b.attrID]; ok {
				b.setDate(rec, &v)
			} else if m.Has(b.attrID) {
				return d.categoryMismatch(b)
			}
		case eav.CategoryList:
			if optionID, ok := m.ListValues[b.attrID]; ok {
				code, known := b.enum.CodeOf(optionID)
				if !known {
					return fmt.Errorf("%w: %s.%s loaded option id %d which is not declared",
						eav.ErrInvalidEnumMapping, d.name, b.name, optionID)
				}
				b.setList(rec, &code)
			} else if m.Has(b.attrID) {
				return d.categoryMismatch(b)
			}
		case eav.CategoryReference:
			if v, ok := m.References[b.attrID]; ok {
				b.setRef(rec, &v)
			} else if m.Has(b.attrID) {
				return d.categoryMismatch(b)
			}
		}
	}
	return nil
}

func (d *Descriptor[T]) categoryMismatch(b *binding[T]) error {
	return fmt.Errorf("%w: %s.%s declares attribute %d as %s but the loaded record carries it elsewhere",
		eav.ErrUnresolvableAttribute, d.name, b.name, b.attrID, b.category)
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyStr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
