package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is what lands in dlq:<queue> when a job gives up. Filename is
// lifted out of image_cleanup payloads so an operator can see which upload
// was left on disk without decoding the job.
type DLQEntry struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type,omitempty"`
	Filename string          `json:"filename,omitempty"`
	Job      json.RawMessage `json:"job"` // raw envelope as popped; a JSON string if it was not JSON
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

func deadLetter(queue, raw, reason string, attempts int, now time.Time) DLQEntry {
	entry := DLQEntry{Queue: queue, Reason: reason, Attempts: attempts, FailedAt: now.UTC()}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		entry.Job, _ = json.Marshal(raw)
		return entry
	}
	entry.Job = json.RawMessage(raw)
	entry.JobType = job.Type
	if job.Type == JobImageCleanup {
		var p ImageCleanupPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			entry.Filename = p.Filename
		}
	}
	return entry
}

// SendToDLQ parks a job that will not be retried. Failures to park it are
// logged; the job is lost in that case.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, raw, reason string, attempts int) {
	entry := deadLetter(queue, raw, reason, attempts, time.Now())
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal failed")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("image", entry.Filename).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", entry.JobType).
		Str("image", entry.Filename).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job parked")
}

// DLQLength is reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
