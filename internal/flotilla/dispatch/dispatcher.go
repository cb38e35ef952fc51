package dispatch

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const taskObjectPrefix = "Task:"
const taskPendingKey = "Task:Pending"

// Dispatcher submits deployment-processing tasks for asynchronous execution
// and revokes them again. Dispatch is fire-and-forget with at-least-once
// delivery; consumers must tolerate duplicate deliveries.
type Dispatcher interface {
	Dispatch(task *Task) error
	DispatchIn(task *Task, delay time.Duration) error
	Revoke(taskId string) error
}

// RedisTaskDispatcher keeps pending tasks in a sorted set scored by the time
// they become ready, so delayed retries and immediate dispatches share one
// queue. Revocation removes pending tasks from the store and cancels any run
// of that task currently executing in this process.
type RedisTaskDispatcher struct {
	db redis.Cmdable

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewRedisTaskDispatcher(db redis.Cmdable) *RedisTaskDispatcher {
	return &RedisTaskDispatcher{
		db:      db,
		running: map[string]context.CancelFunc{},
	}
}

func (d *RedisTaskDispatcher) Dispatch(task *Task) error {
	return d.DispatchIn(task, 0)
}

func (d *RedisTaskDispatcher) DispatchIn(task *Task, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errors.WithStack(err)
	}
	ready := time.Now().Add(delay)

	pipe := d.db.TxPipeline()
	pipe.Set(taskObjectPrefix+task.Id, data, 0)
	pipe.ZAdd(taskPendingKey, redis.Z{Member: task.Id, Score: float64(ready.UnixNano())})
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to dispatch task %s", task.Id)
}

// Revoke removes the task if it is still pending and sends a forced-stop
// signal to any in-flight run of it. The signal is best-effort: the caller's
// state updates are not held back until the run actually terminates.
func (d *RedisTaskDispatcher) Revoke(taskId string) error {
	pipe := d.db.TxPipeline()
	pipe.ZRem(taskPendingKey, taskId)
	pipe.Del(taskObjectPrefix + taskId)
	if _, err := pipe.Exec(); err != nil {
		return errors.Wrapf(err, "failed to revoke task %s", taskId)
	}

	d.mu.Lock()
	cancel, ok := d.running[taskId]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// Claim pops one ready task. Multiple workers may observe the same candidate,
// but ZRem reports how many members were actually removed, so exactly one
// claimer wins. Returns nil when nothing is ready.
func (d *RedisTaskDispatcher) Claim() (*Task, error) {
	now := float64(time.Now().UnixNano())
	ids, err := d.db.ZRangeByScore(taskPendingKey, redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatScore(now),
		Count: 1,
	}).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	id := ids[0]

	removed, err := d.db.ZRem(taskPendingKey, id).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if removed == 0 {
		// lost the claim race, or the task was revoked
		return nil, nil
	}

	data, err := d.db.Get(taskObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	d.db.Del(taskObjectPrefix + id)

	task := &Task{}
	if err := json.Unmarshal(data, task); err != nil {
		return nil, errors.WithStack(err)
	}
	return task, nil
}

// StartRun registers a cancellable context for a claimed task so Revoke can
// target it while it executes. The returned done func must be called when the
// run finishes.
func (d *RedisTaskDispatcher) StartRun(parent context.Context, taskId string) (ctx context.Context, done func()) {
	ctx, cancel := context.WithCancel(parent)
	d.mu.Lock()
	d.running[taskId] = cancel
	d.mu.Unlock()
	return ctx, func() {
		d.mu.Lock()
		delete(d.running, taskId)
		d.mu.Unlock()
		cancel()
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
