package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/vikasavnish/parentportal/internal/email"
)

// Job is one deferred email delivery.
type Job struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Message   email.Message `json:"message"`
	NotBefore time.Time     `json:"not_before"`
	Attempt   int           `json:"attempt"`
}

// Job kinds.
const (
	KindActivation   = "activation"
	KindChildCreated = "child_created"
)

// NewJob builds a job due at notBefore.
func NewJob(kind string, msg email.Message, notBefore time.Time) Job {
	return Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   msg,
		NotBefore: notBefore,
	}
}

// Queue holds jobs until they are due.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Due removes and returns up to max jobs whose NotBefore is at or before now.
	Due(ctx context.Context, now time.Time, max int) ([]Job, error)
}

// MemoryQueue is an in-process Queue. Jobs are lost on restart.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *MemoryQueue) Due(_ context.Context, now time.Time, max int) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sort.SliceStable(q.jobs, func(i, j int) bool { return q.jobs[i].NotBefore.Before(q.jobs[j].NotBefore) })

	var due []Job
	rest := q.jobs[:0]
	for _, job := range q.jobs {
		if len(due) < max && !job.NotBefore.After(now) {
			due = append(due, job)
			continue
		}
		rest = append(rest, job)
	}
	q.jobs = rest
	return due, nil
}

// Len returns the number of pending jobs.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Pending returns a copy of the pending jobs.
func (q *MemoryQueue) Pending() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.jobs...)
}

// RedisQueue keeps jobs in a sorted set scored by due time in unix milliseconds.
// Members are the JSON-encoded jobs.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.client.ZAdd(ctx, q.key, &redis.Z{
		Score:  float64(job.NotBefore.UnixMilli()),
		Member: string(payload),
	}).Err()
}

// Due claims jobs one by one with ZREM so that two dispatchers sharing the
// key never deliver the same job.
func (q *RedisQueue) Due(ctx context.Context, now time.Time, max int) ([]Job, error) {
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(max),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read due jobs: %w", err)
	}

	jobs := make([]Job, 0, len(members))
	for _, member := range members {
		removed, err := q.client.ZRem(ctx, q.key, member).Result()
		if err != nil {
			return jobs, fmt.Errorf("claim job: %w", err)
		}
		if removed == 0 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
