package storage

import "fmt"

// getIDHash returns a 2-level hash path for file sharding.
// hash1: 00-ff (256 dirs), hash2: 00-ff (256 dirs)
// Ids are sequential, so the low 16 bits spread consecutive inserts
// evenly over 65,536 leaf directories.
func getIDHash(id int64) (hash1, hash2 string) {
	hash := fmt.Sprintf("%04x", id&0xffff)
	return hash[0:2], hash[2:4]
}
