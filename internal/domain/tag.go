package domain

// Tag names used by convention. The wire shape stays a flexible string
// tuple; these accessors and constructors give the call sites names
// instead of index arithmetic.
const (
	TagDiscriminator = "d" // stable id distinguishing replaceable records
	TagEvent         = "e" // reference to a record id
	TagAddress       = "a" // reference to a replaceable address
	TagSubject       = "p" // reference to an author pubkey
	TagTitle         = "title"
)

// Tag is one ordered tuple from a record's tag list. Element 0 is the tag
// name, element 1 the primary value, further elements are positional
// extras (e.g. an endpoint hint).
type Tag []string

// Name returns the tag name, or "" for a malformed empty tuple.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the primary value, or "" if the tuple has none.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Hint returns the positional extra after the value, or "" if absent.
func (t Tag) Hint() string {
	if len(t) < 3 {
		return ""
	}
	return t[2]
}

// DTag builds a discriminator tag.
func DTag(value string) Tag { return Tag{TagDiscriminator, value} }

// ETag builds a record-id reference tag.
func ETag(id string) Tag { return Tag{TagEvent, id} }

// ATag builds a replaceable-address reference tag with an optional
// endpoint hint.
func ATag(address, hint string) Tag {
	if hint == "" {
		return Tag{TagAddress, address}
	}
	return Tag{TagAddress, address, hint}
}

// PTag builds an author reference tag.
func PTag(pubkey string) Tag { return Tag{TagSubject, pubkey} }

// TitleTag builds a title tag.
func TitleTag(title string) Tag { return Tag{TagTitle, title} }
