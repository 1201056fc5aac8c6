package metadata

import (
	"fmt"
	"sort"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Enum is the bidirectional code-to-id table of one enumerated
// attribute. The ids are attribute ids naming the declared options; the
// codes are the constants the domain type stores. The table is owned by
// the type's metadata and resolved by lookup, never by introspection.
type Enum struct {
	codeToID map[string]int64
	idToCode map[int64]string
	declErr  error
}

// NewEnum builds the option table from code to option id.
func NewEnum(options map[string]int64) *Enum {
	e := &Enum{
		codeToID: make(map[string]int64, len(options)),
		idToCode: make(map[int64]string, len(options)),
	}

	// Deterministic order so a duplicate id always reports the same pair.
	codes := make([]string, 0, len(options))
	for code := range options {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		id := options[code]
		if id <= 0 {
			e.declErr = fmt.Errorf("%w: option %q has non-positive id %d",
				eav.ErrInvalidEnumMapping, code, id)
			continue
		}
		if prev, dup := e.idToCode[id]; dup {
			e.declErr = fmt.Errorf("%w: options %q and %q share id %d",
				eav.ErrInvalidEnumMapping, prev, code, id)
			continue
		}
		e.codeToID[code] = id
		e.idToCode[id] = code
	}
	return e
}

// IDOf resolves a stored code to its declared option id.
func (e *Enum) IDOf(code string) (int64, bool) {
	id, ok := e.codeToID[code]
	return id, ok
}

// CodeOf resolves an option id back to its code.
func (e *Enum) CodeOf(id int64) (string, bool) {
	code, ok := e.idToCode[id]
	return code, ok
}

// Err returns the first declaration error, if any. Checked eagerly by
// Descriptor.Validate.
func (e *Enum) Err() error { return e.declErr }
