// Package hashcat provides the 64-bit mixing used for position
// fingerprints. The constants are fixed by the training pipeline's
// fingerprint format and must not change.
package hashcat

// Hash scrambles a 64-bit value.
func Hash(val uint64) uint64 {
	return 0xfad0d7f2fbb059f1*(val+0xbaad41cdcb839961) +
		0x7acec0050bf82f43*((val>>31)+0xd571b3a92b1b2755)
}

// HashCat appends a value to a hash.
func HashCat(hash, x uint64) uint64 {
	hash ^= 0x299799adf0d95def + Hash(x) + (hash << 6) + (hash >> 2)
	return hash
}

// HashCats combines 64-bit values into a concatenated hash.
func HashCats(args ...uint64) uint64 {
	hash := uint64(0)
	for _, x := range args {
		hash = HashCat(hash, x)
	}
	return hash
}
