package vectorstore

import (
	"crypto/sha256"
	"fmt"
	"strconv"
)

// PointID derives a deterministic UUID for a (document, segment index)
// pair. Reprocessing a document therefore produces the same IDs and the
// upsert overwrites in place, so debug reruns never duplicate points.
func PointID(docID string, index int) string {
	sum := sha256.Sum256([]byte(docID + ":" + strconv.Itoa(index)))

	// Stamp RFC 4122 version/variant bits so Qdrant accepts it as a UUID.
	sum[6] = (sum[6] & 0x0f) | 0x40
	sum[8] = (sum[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}
