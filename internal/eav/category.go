package eav

// Category partitions attribute ids by the satellite table that stores
// them. A record type binds each attribute id it uses to exactly one
// category; querying an id under the wrong category is a programming
// error in the type's metadata declaration, not a runtime condition.
type Category int

const (
	// CategoryValue is a string-serialized scalar attribute.
	CategoryValue Category = iota
	// CategoryDate is a date/time attribute.
	CategoryDate
	// CategoryList is an enumerated attribute whose stored value is the
	// id of the chosen enumerated option.
	CategoryList
	// CategoryReference is a foreign link to another object id.
	CategoryReference
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryValue:
		return "value"
	case CategoryDate:
		return "date"
	case CategoryList:
		return "list"
	case CategoryReference:
		return "reference"
	default:
		return "unknown"
	}
}
