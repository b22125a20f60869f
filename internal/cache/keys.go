package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

// JobRecordKey holds the serialized record of a terminal job.
func JobRecordKey(jobID uuid.UUID) string {
	return fmt.Sprintf("video:%s", jobID)
}

func JobLockKey(jobID uuid.UUID) string {
	return fmt.Sprintf("lock:job:%s", jobID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
