package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func RunStatusKey(runID uuid.UUID) string {
	return fmt.Sprintf("run:%s", runID)
}

// ViewsKey scopes lead view counters per owner, so counters survive across
// sessions but never leak between accounts.
func ViewsKey(ownerUID string, requestID int64) string {
	return fmt.Sprintf("views:request:%s:%d", ownerUID, requestID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

func SnapshotKey(ownerUID string) string {
	return fmt.Sprintf("snapshot:%s", ownerUID)
}
