package forestry

// Path is a sequence of nibbles (4-bit values, one per hex digit) derived
// from the blake2b-256 digest of a key. Every Path produced by PathFor has
// exactly PathLength elements.
type Path []byte

// PathLength is the number of nibbles in a full key path: two nibbles per
// digest byte.
const PathLength = hashDigestSize * 2

// toNibbles expands b into a Path twice its length, high nibble first,
// the standard hex expansion used throughout the trie's hashing scheme.
func toNibbles(b []byte) Path {
	out := make(Path, len(b)*2)
	for i, v := range b {
		out[2*i] = v >> 4
		out[2*i+1] = v & 0x0f
	}
	return out
}

// PathFor returns the 64-nibble path for key: hex(digest(key)).
func PathFor(key []byte) Path {
	d := digest(key)
	return toNibbles(d[:])
}

// commonPrefixLen returns the length of the longest common prefix of a and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// packNibbles packs a nibble sequence into bytes using the odd-aware scheme:
// an even-length sequence packs two nibbles per byte; an odd-length sequence
// is packed as one byte holding only its leading nibble (in the low half),
// followed by the even-length remainder packed the same way.
func packNibbles(s []byte) []byte {
	if len(s)%2 == 1 {
		out := make([]byte, 1+len(s)/2)
		out[0] = s[0]
		packEvenInto(out[1:], s[1:])
		return out
	}
	out := make([]byte, len(s)/2)
	packEvenInto(out, s)
	return out
}

func packEvenInto(dst, s []byte) {
	for i := 0; i < len(dst); i++ {
		dst[i] = s[2*i]<<4 | s[2*i+1]
	}
}

// fromNibbles packs an even-length nibble sequence back into bytes. It is
// only ever called on full paths or suffixes known to have even length
// (keys themselves, not trie prefixes, which may be odd).
func fromNibbles(s []byte) []byte {
	out := make([]byte, len(s)/2)
	packEvenInto(out, s)
	return out
}
