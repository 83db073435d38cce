package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueImageCleanup = "jobs:image_cleanup"

	JobImageCleanup = "image_cleanup"

	// MaxAttempts is how many times a job runs before it goes to the DLQ.
	MaxAttempts = 3

	popTimeout   = 5 * time.Second
	errorBackoff = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Processor handles the payload of one job type. A returned error makes the
// job eligible for retry.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// ImageCleanupPayload names an uploaded file that may have become orphaned.
type ImageCleanupPayload struct {
	Filename string `json:"filename"`
}

// EnqueueImageCleanup asks the pool to delete filename once no product
// references it.
func (d *Dispatcher) EnqueueImageCleanup(ctx context.Context, filename string) error {
	return d.enqueue(ctx, QueueImageCleanup, JobImageCleanup, ImageCleanupPayload{Filename: filename})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb        *redis.Client
	processors map[string]Processor
	queues     []string
	wg         sync.WaitGroup
}

// NewPool maps job types to their processors. Only queues with a processor
// are consumed.
func NewPool(rdb *redis.Client, imageCleanup Processor) *Pool {
	p := &Pool{rdb: rdb, processors: make(map[string]Processor)}
	if imageCleanup != nil {
		p.processors[JobImageCleanup] = imageCleanup
		p.queues = append(p.queues, QueueImageCleanup)
	}
	return p
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle workers
// cost nothing; they exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 || numWorkers <= 0 {
		log.Info().Msg("worker pool disabled")
		return
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("worker %d shutting down", id)
			return
		}
		result, err := p.rdb.BRPop(ctx, popTimeout, p.queues...).Result()
		if errors.Is(err, redis.Nil) {
			continue // timeout
		}
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed, backing off")
				sleep(ctx, errorBackoff)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.handle(ctx, result[0], result[1])
	}
}

func (p *Pool) handle(ctx context.Context, queue, raw string) {
	job, err := p.runJob(ctx, raw)
	if err == nil {
		return
	}
	if errors.Is(err, errUndecodable) || errors.Is(err, errUnknownJobType) || job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, p.rdb, queue, raw, err.Error(), job.Attempts)
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("worker: job failed, requeueing")
	if err := push(ctx, p.rdb, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("worker: requeue failed, job lost")
	}
}

var (
	errUndecodable    = errors.New("undecodable job")
	errUnknownJobType = errors.New("unknown job type")
)

// runJob decodes raw, runs its processor and returns the job with Attempts
// already counting this run.
func (p *Pool) runJob(ctx context.Context, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return job, fmt.Errorf("%w: %v", errUndecodable, err)
	}
	job.Attempts++
	proc, ok := p.processors[job.Type]
	if !ok {
		return job, fmt.Errorf("%w: %q", errUnknownJobType, job.Type)
	}
	return job, proc.Process(ctx, job.Payload)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
