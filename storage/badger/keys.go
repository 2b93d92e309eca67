package badger

import "fmt"

// Key prefixes for different data types
const (
	factPrefix       = "facts"
	checkpointPrefix = "chkpt"
)

// makeFactKey generates a key for cached facts.
// Format: prefix:namespace:contentKey
func makeFactKey(namespace, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", factPrefix, namespace, key))
}

// makeCheckpointKey generates a key for a job checkpoint.
func makeCheckpointKey(job string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, job))
}
