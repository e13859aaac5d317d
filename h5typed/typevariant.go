package h5typed

// TypeVariant is a semantic annotation attached to a dataset or attribute,
// independent of the bit layout of its datatype. It is stored as the
// reserved attribute named by typeVariantAttr, holding an ordinal into the
// committed TypeVariant enumeration.
type TypeVariant int

const (
	// VariantNone marks the absence of an annotation.
	VariantNone TypeVariant = iota
	// VariantTimestampMillis marks an i64 holding milliseconds since the
	// Unix epoch.
	VariantTimestampMillis
	// VariantStringUTF8 marks string payloads known to be UTF-8.
	VariantStringUTF8
	// VariantBitField marks a 64-bit-word packed bit set.
	VariantBitField
	// VariantEnum marks an integer carrying enum ordinals.
	VariantEnum
)

// typeVariantAttr is the reserved attribute name carrying the ordinal.
const typeVariantAttr = "__TYPE_VARIANT__"

var typeVariantNames = []string{
	"NONE",
	"TIMESTAMP_MILLISECONDS_SINCE_EPOCH",
	"STRING_UTF8",
	"BITFIELD",
	"ENUM",
}

func (v TypeVariant) String() string {
	if int(v) < 0 || int(v) >= len(typeVariantNames) {
		return "UNKNOWN"
	}
	return typeVariantNames[v]
}

// typeVariantCount is the cardinality of the committed TypeVariant enum
// this library writes. A file written by a newer library may carry a
// larger enum; the registry handles the mismatch by committing a fresh
// type and repointing the reserved soft link.
func typeVariantCount() int { return len(typeVariantNames) }
