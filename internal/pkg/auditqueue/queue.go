package auditqueue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/bloomday/bloomday/app/models"
	"github.com/bloomday/bloomday/internal/pkg/cache"
	"github.com/bloomday/bloomday/internal/pkg/database"
	"github.com/bloomday/bloomday/internal/pkg/payments"
)

const (
	queueKey    = "audit_queue"
	popInterval = 1 * time.Second
)

// Queue buffers audit facts in a Redis list and drains them into the
// audit_events table from background workers. Writing the trail must never
// add latency or a failure mode to the webhook request path, so Record only
// enqueues.
type Queue struct {
	client  *redis.Client
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates an audit queue with the given number of drain workers.
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:  cache.GetClient(),
		workers: workers,
	}
}

var (
	globalQueue *Queue
	queueOnce   sync.Once
)

// GetQueue returns the global audit queue (singleton).
func GetQueue() *Queue {
	queueOnce.Do(func() {
		globalQueue = NewQueue(2)
	})
	return globalQueue
}

// Record implements payments.AuditSink. The fact is serialized and pushed to
// Redis; a push failure falls back to the application log so the fact is not
// silently lost.
func (q *Queue) Record(ctx context.Context, fact payments.AuditFact) error {
	data, err := json.Marshal(fact)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, queueKey, data).Err(); err != nil {
		log.Errorf("[AuditQueue] enqueue failed, falling back to log: %v; fact=%s", err, string(data))
		return err
	}
	return nil
}

// Start launches the drain workers.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[AuditQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop drains in-flight work and stops the workers.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[AuditQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[AuditQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Debugf("[AuditQueue] Worker %d stopping", id)
			return
		default:
		}

		res, err := q.client.BLPop(ctx, popInterval, queueKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[AuditQueue] Worker %d pop error: %v", id, err)
				time.Sleep(popInterval)
			}
			continue
		}
		// BLPop returns [key, value]
		if len(res) < 2 {
			continue
		}
		q.persist(res[1])
	}
}

func (q *Queue) persist(raw string) {
	var fact payments.AuditFact
	if err := json.Unmarshal([]byte(raw), &fact); err != nil {
		log.Errorf("[AuditQueue] Dropping malformed fact: %v", err)
		return
	}

	detail := ""
	if len(fact.Detail) > 0 {
		if data, err := json.Marshal(fact.Detail); err == nil {
			detail = string(data)
		}
	}

	event := models.AuditEvent{
		Action:     fact.Action,
		Provider:   fact.Provider,
		TenantID:   fact.TenantID,
		EntityKind: fact.EntityKind,
		EntityRef:  fact.EntityRef,
		Detail:     detail,
		OccurredAt: fact.OccurredAt,
	}
	if err := database.GetDB().Create(&event).Error; err != nil {
		// Re-queue once so a transient DB hiccup does not lose the entry.
		log.Errorf("[AuditQueue] persist failed, re-queueing: %v", err)
		if rerr := q.client.RPush(context.Background(), queueKey, raw).Err(); rerr != nil {
			log.Errorf("[AuditQueue] re-queue failed, fact lost to log only: %v; fact=%s", rerr, raw)
		}
		time.Sleep(popInterval)
	}
}
