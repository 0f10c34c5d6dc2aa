package fixer

// ChunkState is where a slot is in its repair. A slot moves
// Unchecked -> DecodeFailed | Decoded -> Valid | Invalid -> Kept | Deleted | Replaced.
type ChunkState uint8

const (
	Unchecked ChunkState = iota
	DecodeFailed
	Decoded
	Valid
	Invalid
	Kept
	Deleted
	Replaced
	// the policy action itself failed, the chunk is left as it was
	RepairFailed
)

func (s ChunkState) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case DecodeFailed:
		return "decode_failed"
	case Decoded:
		return "decoded"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Kept:
		return "kept"
	case Deleted:
		return "deleted"
	case Replaced:
		return "replaced"
	case RepairFailed:
		return "repair_failed"
	default:
		return "unknown"
	}
}

// Reason a chunk failed its checks.
type Reason uint8

const (
	NoReason Reason = iota
	// the blob could not be read or decompressed
	ReasonRead
	// the payload is not a readable root compound
	ReasonDecode
	ReasonPosition
	ReasonSections
)

func (r Reason) String() string {
	switch r {
	case NoReason:
		return "none"
	case ReasonRead:
		return "read"
	case ReasonDecode:
		return "decode"
	case ReasonPosition:
		return "position"
	case ReasonSections:
		return "sections"
	default:
		return "unknown"
	}
}
