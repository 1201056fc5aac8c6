// Package eav defines the value objects shared by the EAV persistence
// engine: the generic attribute record produced by extraction and
// consumed by reconstruction, the attribute categories, and the error
// taxonomy of the storage layer.
package eav

import "time"

// Header holds the general object columns shared by every stored record.
// Domain types embed it and hand the repository an accessor to it via
// their metadata descriptor.
type Header struct {
	ObjectID    int64
	ParentID    *int64
	Name        *string
	Description *string
}

// Mutable is the in-memory EAV representation of one object: the general
// columns of the objects table plus four sparse attribute maps keyed by
// attribute id. A nil field on the typed record is omitted from the
// corresponding map, never stored as an explicit zero entry.
//
// A Mutable is built fresh per extraction or per result row and never
// outlives the repository operation that created it.
type Mutable struct {
	ObjectID     int64
	ParentID     *int64
	ObjectTypeID int64
	Name         *string
	Description  *string

	Values     map[int64]string
	DateValues map[int64]time.Time
	ListValues map[int64]int64
	References map[int64]int64
}

// NewMutable returns a Mutable with all four attribute maps allocated.
func NewMutable() *Mutable {
	return &Mutable{
		Values:     make(map[int64]string),
		DateValues: make(map[int64]time.Time),
		ListValues: make(map[int64]int64),
		References: make(map[int64]int64),
	}
}

// Has reports whether the attribute id is present in any of the four maps.
func (m *Mutable) Has(attrID int64) bool {
	if _, ok := m.Values[attrID]; ok {
		return true
	}
	if _, ok := m.DateValues[attrID]; ok {
		return true
	}
	if _, ok := m.ListValues[attrID]; ok {
		return true
	}
	_, ok := m.References[attrID]
	return ok
}
