package rabbitmq

import (
	"context"
	"fmt"
	"mobile-banking-core/internal/pkg/logger"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	headerRetryCount = "x-retry-count"
	handlerTimeout   = 2 * time.Minute
)

// MessageHandler processes one delivery. A returned error schedules a retry.
type MessageHandler func(ctx context.Context, msg *amqp.Delivery) error

type RetryStrategy string

const (
	FixedRetry       RetryStrategy = "fixed"
	ExponentialRetry RetryStrategy = "exponential"
	LinearRetry      RetryStrategy = "linear"
)

type SubscribeOptions struct {
	QueueOpts        *QueueConfig
	QueueName        string
	ConsumerName     string
	WorkerCount      int
	PrefetchCount    int
	MaxRetryAttempts int
	EnableDeadLetter bool
	DeadLetterName   string
	RetryStrategy    RetryStrategy
	BaseRetryDelay   time.Duration
	MaxRetryDelay    time.Duration
}

func DefaultSubscribeOptions(queueName string) *SubscribeOptions {
	return &SubscribeOptions{
		QueueName:        queueName,
		ConsumerName:     queueName,
		WorkerCount:      2,
		PrefetchCount:    10,
		MaxRetryAttempts: 5,
		EnableDeadLetter: true,
		DeadLetterName:   "fail:" + queueName,
		RetryStrategy:    ExponentialRetry,
		BaseRetryDelay:   time.Second * 2,
		MaxRetryDelay:    time.Minute * 5,
	}
}

// Subscriber consumes one queue with a fixed number of workers, each on its
// own channel. Failed messages are republished with a delay and moved to the
// dead letter queue once MaxRetryAttempts is reached.
type Subscriber struct {
	connManager     *ConnectionManager
	channelManagers []*ChannelManager
	handler         MessageHandler
	opts            *SubscribeOptions
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	isRunning       atomic.Bool
	pool            *ants.Pool
}

func NewSubscriber(ctx context.Context, connManager *ConnectionManager, handler MessageHandler, opts *SubscribeOptions) (*Subscriber, error) {
	ctx, cancel := context.WithCancel(ctx)

	pool, err := ants.NewPool(opts.WorkerCount, ants.WithOptions(ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       true,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("subscriber %s worker panic: %v", opts.QueueName, i)
		},
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create subscriber pool: %w", err)
	}

	sub := &Subscriber{
		connManager:     connManager,
		handler:         handler,
		opts:            opts,
		ctx:             ctx,
		cancel:          cancel,
		channelManagers: make([]*ChannelManager, opts.WorkerCount),
		pool:            pool,
	}
	for i := range sub.channelManagers {
		sub.channelManagers[i] = NewChannelManager(ctx, connManager)
	}

	return sub, nil
}

func (s *Subscriber) Start() error {
	if s.isRunning.Swap(true) {
		return fmt.Errorf("subscriber %s is already running", s.opts.QueueName)
	}
	for i := 0; i < s.opts.WorkerCount; i++ {
		workerID := i
		s.wg.Add(1)
		if err := s.pool.Submit(func() { s.runWorker(workerID) }); err != nil {
			s.wg.Done()
			return fmt.Errorf("failed to start worker %d: %w", workerID, err)
		}
	}
	return nil
}

func (s *Subscriber) runWorker(workerID int) {
	defer s.wg.Done()

	backoff := &exponentialBackoff{
		min:    1 * time.Second,
		max:    30 * time.Second,
		factor: 2,
	}

	for s.isRunning.Load() && s.ctx.Err() == nil {
		if err := s.consume(workerID); err != nil {
			logger.Warning.Printf("%s worker %d consume error: %v", s.opts.QueueName, workerID, err)
			if !backoff.sleep(s.ctx) {
				return
			}
			continue
		}
		backoff.reset()
	}
}

type exponentialBackoff struct {
	min    time.Duration
	max    time.Duration
	factor float64
	curr   time.Duration
}

// sleep waits for the next delay. It returns false when ctx ended first.
func (b *exponentialBackoff) sleep(ctx context.Context) bool {
	if b.curr == 0 {
		b.curr = b.min
	} else {
		b.curr = min(time.Duration(float64(b.curr)*b.factor), b.max)
	}

	t := time.NewTimer(b.curr)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *exponentialBackoff) reset() {
	b.curr = 0
}

func (s *Subscriber) consume(workerID int) error {
	ch, err := s.channelManagers[workerID].GetChannel()
	if err != nil {
		return err
	}

	if err := ch.Qos(s.opts.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	config := s.opts.QueueOpts
	if config == nil {
		config = DefaultQueueConfig()
	}
	q, err := ch.QueueDeclare(s.opts.QueueName, config.Durable, config.AutoDelete, config.Exclusive, config.NoWait, config.Args)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	consumerName := fmt.Sprintf("%s-%d-%d", s.opts.ConsumerName, workerID, time.Now().Unix())
	msgs, err := ch.ConsumeWithContext(s.ctx, q.Name, consumerName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for msg := range msgs {
		if err := s.processMessage(workerID, &msg); err != nil {
			logger.Error.Printf("%s worker %d: %v", s.opts.QueueName, workerID, err)
		}
	}

	if s.ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("delivery channel closed")
}

func (s *Subscriber) processMessage(workerID int, msg *amqp.Delivery) error {
	ctx, cancel := context.WithTimeout(s.ctx, handlerTimeout)
	defer cancel()

	if err := s.handler(ctx, msg); err != nil {
		return s.handleProcessingError(workerID, msg, err)
	}

	if err := msg.Ack(false); err != nil {
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}
	return nil
}

func deliveryCount(msg *amqp.Delivery) int {
	count := 0
	if v, exists := msg.Headers[headerRetryCount]; exists {
		switch n := v.(type) {
		case int:
			count = n
		case int32:
			count = int(n)
		case int64:
			count = int(n)
		default:
			logger.Warning.Printf("unexpected type for %s: %T", headerRetryCount, v)
		}
	}

	if msg.Redelivered && count == 0 {
		count = 1
	}
	return count
}

func (s *Subscriber) handleProcessingError(workerID int, msg *amqp.Delivery, handlerErr error) error {
	count := deliveryCount(msg)

	if count >= s.opts.MaxRetryAttempts {
		if !s.opts.EnableDeadLetter {
			if err := msg.Reject(false); err != nil {
				return fmt.Errorf("failed to reject message: %w", err)
			}
			return fmt.Errorf("dropped after %d attempts: %w", count, handlerErr)
		}
		if err := msg.Ack(false); err != nil {
			return fmt.Errorf("failed to acknowledge message: %w", err)
		}
		if err := s.publishToDeadLetter(workerID, msg, handlerErr); err != nil {
			return fmt.Errorf("failed to publish to dead letter queue: %w", err)
		}
		return fmt.Errorf("dead lettered after %d attempts: %w", count, handlerErr)
	}

	if err := s.republishWithDelay(workerID, msg, count+1); err != nil {
		return fmt.Errorf("failed to republish message: %w", err)
	}
	return fmt.Errorf("handler error on attempt %d: %w", count+1, handlerErr)
}

func republishing(msg *amqp.Delivery) amqp.Publishing {
	return amqp.Publishing{
		Headers:         msg.Headers,
		ContentType:     msg.ContentType,
		ContentEncoding: msg.ContentEncoding,
		DeliveryMode:    msg.DeliveryMode,
		Priority:        msg.Priority,
		CorrelationId:   msg.CorrelationId,
		MessageId:       msg.MessageId,
		Timestamp:       msg.Timestamp,
		Type:            msg.Type,
		AppId:           msg.AppId,
		Body:            msg.Body,
	}
}

func (s *Subscriber) republishWithDelay(workerID int, msg *amqp.Delivery, retryCount int) error {
	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	msg.Headers[headerRetryCount] = int32(retryCount)
	publishing := republishing(msg)
	delay := s.retryDelay(retryCount)

	if err := msg.Ack(false); err != nil {
		return fmt.Errorf("failed to acknowledge original message: %w", err)
	}
	logger.Info.Printf("%s retry %d scheduled in %s", s.opts.QueueName, retryCount, delay)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}

		ch, err := s.channelManagers[workerID].GetChannel()
		if err != nil {
			logger.Error.Printf("failed to get channel for retry: %v", err)
			return
		}
		if err := ch.PublishWithContext(s.ctx, "", s.opts.QueueName, false, false, publishing); err != nil {
			logger.Error.Printf("failed to republish message: %v", err)
		}
	}()

	return nil
}

func (s *Subscriber) publishToDeadLetter(workerID int, msg *amqp.Delivery, cause error) error {
	ch, err := s.channelManagers[workerID].GetChannel()
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(s.opts.DeadLetterName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	msg.Headers["x-death-reason"] = cause.Error()
	msg.Headers["x-death-time"] = time.Now().Format(time.RFC3339)
	msg.Headers["x-death-queue"] = s.opts.QueueName

	if err := ch.PublishWithContext(s.ctx, "", s.opts.DeadLetterName, false, false, republishing(msg)); err != nil {
		return fmt.Errorf("failed to publish to dead letter queue: %w", err)
	}
	return nil
}

func (s *Subscriber) retryDelay(retryCount int) time.Duration {
	var delay time.Duration

	switch s.opts.RetryStrategy {
	case FixedRetry:
		delay = s.opts.BaseRetryDelay
	case LinearRetry:
		delay = s.opts.BaseRetryDelay * time.Duration(retryCount)
	default:
		delay = s.opts.BaseRetryDelay
		for i := 1; i < retryCount && delay < s.opts.MaxRetryDelay; i++ {
			delay *= 2
		}
	}

	return min(delay, s.opts.MaxRetryDelay)
}

func (s *Subscriber) Stop() error {
	if !s.isRunning.Swap(false) {
		s.cancel()
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 30):
		return fmt.Errorf("timeout waiting for %s workers to stop", s.opts.QueueName)
	}

	for i, cm := range s.channelManagers {
		if err := cm.Close(); err != nil {
			logger.Error.Printf("error closing channel for %s worker %d: %v", s.opts.QueueName, i, err)
		}
	}
	s.pool.Release()
	return nil
}

func (s *Subscriber) IsHealthy() bool {
	return s.isRunning.Load() && s.pool.Running() > 0
}
