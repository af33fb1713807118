package serverApp

import (
	"context"
	"fmt"
	types "mobile-banking-core/internal/common/type"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"mobile-banking-core/internal/repository"
	historyService "mobile-banking-core/internal/service/history"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Workers are the history consumers started next to the API.
type Workers struct {
	subscribers []*rabbitmq.Subscriber
}

// InitWorker starts one subscriber per event queue. Each consumer persists
// what it receives through the history service.
func InitWorker(ctx context.Context, db *database.Database, rb *rabbitmq.ConnectionManager) (*Workers, error) {
	if db == nil || rb == nil {
		return nil, fmt.Errorf("history workers need both the database and rabbitmq")
	}

	history := historyService.NewService(ctx, repository.NewRepository(db))
	consumers := map[string]rabbitmq.MessageHandler{
		types.QueuePaymentFinished: history.RecordPayment,
		types.QueueKycDecided:      history.RecordKycDecision,
	}

	pool, err := ants.NewPool(len(consumers), ants.WithOptions(ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       true,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("Worker panic: %v\n", i)
		},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	w := &Workers{}
	errs := make(chan error, len(consumers))
	for queue, handler := range consumers {
		sub, err := rabbitmq.NewSubscriber(ctx, rb, handler, rabbitmq.DefaultSubscribeOptions(queue))
		if err != nil {
			w.Stop()
			return nil, fmt.Errorf("failed to create %s subscriber: %w", queue, err)
		}
		w.subscribers = append(w.subscribers, sub)

		if err := pool.Submit(func() {
			if err := sub.Start(); err != nil {
				errs <- fmt.Errorf("failed to start %s subscriber: %w", queue, err)
				return
			}
			logger.Info.Printf("history worker consuming %s", queue)
			errs <- nil
		}); err != nil {
			w.Stop()
			return nil, fmt.Errorf("failed to submit task to pool: %w", err)
		}
	}

	for range consumers {
		if err := <-errs; err != nil {
			w.Stop()
			return nil, err
		}
	}
	return w, nil
}

func (w *Workers) Stop() {
	for _, sub := range w.subscribers {
		if err := sub.Stop(); err != nil {
			logger.Error.Printf("stopping subscriber: %v", err)
		}
	}
}

// Healthy reports whether every subscriber still has running consumers.
func (w *Workers) Healthy() bool {
	if len(w.subscribers) == 0 {
		return false
	}
	for _, sub := range w.subscribers {
		if !sub.IsHealthy() {
			return false
		}
	}
	return true
}
