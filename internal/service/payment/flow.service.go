package payment

import (
	"context"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Backend is the wallet surface of the backend API.
type Backend interface {
	CreateQrPayment(ctx context.Context, idempotencyKey string, req backend.QrPaymentRequest) (*backend.Intent, error)
	CreateReloadPayment(ctx context.Context, idempotencyKey string, req backend.ReloadPaymentRequest) (*backend.Intent, error)
	CreateBillPayment(ctx context.Context, idempotencyKey string, req backend.BillPaymentRequest) (*backend.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*backend.Intent, error)
}

// SnapshotStore keeps the last state of a flow outside the process.
type SnapshotStore interface {
	Save(flowID string, s State) error
	Load(flowID string) (*State, error)
}

// Attempt identifies one logical payment attempt. Both fields are optional.
type Attempt struct {
	IdempotencyKey string
	AttemptRef     string
}

type FlowDeps struct {
	Backend   Backend
	Schedule  PollSchedule
	Journal   KeyJournal          // optional
	Snapshots SnapshotStore       // optional
	Publisher rabbitmq.IPublisher // optional
	// Sleep waits between polls; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

type createFunc func(ctx context.Context, key string) (*backend.Intent, error)

type attempt struct {
	kind   enum.PaymentKindEnum
	amount types.Money
	key    string
	create createFunc
}

// Flow owns one payment screen: at most one attempt is in flight at a time.
type Flow struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc
	deps   FlowDeps
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     State
	last      *attempt
	observers map[int]func(State)
	nextObs   int

	notifyMu sync.Mutex
}

func NewFlow(ctx context.Context, deps FlowDeps) *Flow {
	ctx, cancel := context.WithCancel(ctx)
	deps.Schedule = deps.Schedule.withDefaults()
	if deps.Sleep == nil {
		deps.Sleep = sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Publisher == nil {
		deps.Publisher = rabbitmq.NopPublisher{}
	}
	return &Flow{
		ID:        uuid.NewString(),
		ctx:       ctx,
		cancel:    cancel,
		deps:      deps,
		state:     NewState(),
		observers: map[int]func(State){},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscribe registers an observer for every state change. The returned func
// removes it. Observers run on the flow's goroutine and must not call the
// flow's mutating methods.
func (f *Flow) Subscribe(fn func(State)) func() {
	f.mu.Lock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

// apply runs a transition and notifies observers in order.
func (f *Flow) apply(fn func(State) State) State {
	s, _ := f.transition(func(s State) (State, bool) { return fn(s), true })
	return s
}

// transition is apply with a guard: when fn reports false nothing changes
// and no observer is called.
func (f *Flow) transition(fn func(State) (State, bool)) (State, bool) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	next, changed := fn(f.state)
	if !changed {
		s := f.state
		f.mu.Unlock()
		return s, false
	}
	f.state = next
	observers := lo.Values(f.observers)
	f.mu.Unlock()

	if f.deps.Snapshots != nil {
		if err := f.deps.Snapshots.Save(f.ID, next); err != nil {
			logger.Debug.Printf("payment flow %s: snapshot: %v", f.ID, err)
		}
	}
	for _, o := range observers {
		o(next)
	}
	return next, true
}

func (f *Flow) StartQr(req backend.QrPaymentRequest, a Attempt) bool {
	return f.start(enum.PAYMENT_KIND_QR, req.Amount, a, func(ctx context.Context, key string) (*backend.Intent, error) {
		return f.deps.Backend.CreateQrPayment(ctx, key, req)
	})
}

func (f *Flow) StartReload(req backend.ReloadPaymentRequest, a Attempt) bool {
	return f.start(enum.PAYMENT_KIND_RELOAD, req.Amount, a, func(ctx context.Context, key string) (*backend.Intent, error) {
		return f.deps.Backend.CreateReloadPayment(ctx, key, req)
	})
}

func (f *Flow) StartBill(req backend.BillPaymentRequest, a Attempt) bool {
	return f.start(enum.PAYMENT_KIND_BILL, req.Amount, a, func(ctx context.Context, key string) (*backend.Intent, error) {
		return f.deps.Backend.CreateBillPayment(ctx, key, req)
	})
}

// Retry repeats the last attempt with the same idempotency key. It is
// rejected while a payment is in flight or before any attempt was made.
func (f *Flow) Retry() bool {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()
	if last == nil {
		return false
	}
	return f.start(last.kind, last.amount, Attempt{IdempotencyKey: last.key}, last.create)
}

func (f *Flow) start(kind enum.PaymentKindEnum, amount types.Money, a Attempt, create createFunc) bool {
	if f.ctx.Err() != nil {
		return false
	}

	_, started := f.transition(func(s State) (State, bool) {
		if s.Stage.IsBusy() {
			return s, false
		}
		return Begin(s, kind, amount, f.deps.Now()), true
	})
	if !started {
		return false
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(kind, amount, a, create)
	}()
	return true
}

func (f *Flow) run(kind enum.PaymentKindEnum, amount types.Money, a Attempt, create createFunc) {
	key := resolveKey(f.deps.Journal, a)

	f.mu.Lock()
	f.last = &attempt{kind: kind, amount: amount, key: key, create: create}
	f.mu.Unlock()

	f.apply(func(s State) State { return WithKey(s, key) })

	intent, err := create(f.ctx, key)
	if err != nil {
		if f.ctx.Err() != nil {
			return
		}
		logger.Warning.Printf("payment flow %s: create %s: %v", f.ID, kind, err)
		f.finish(f.apply(func(s State) State { return CreationFailed(s, err, f.deps.Now()) }))
		return
	}

	s := f.apply(func(s State) State { return Created(s, *intent, f.deps.Now()) })
	if s.Stage.IsTerminal() {
		f.finish(s)
		return
	}

	if s = f.poll(intent.IntentID); s.Stage.IsTerminal() {
		f.finish(s)
	}
}

// poll waits 1s, 2s, 4s, 8s then 10s between fetches and gives up once the
// schedule's total has passed. Elapsed time is the larger of the waits and
// the clock, so slow fetches count towards the total.
func (f *Flow) poll(intentID string) State {
	sched := f.deps.Schedule
	b := sched.backoff()

	start := f.deps.Now()
	var waited time.Duration
	elapsed := func() time.Duration {
		return max(waited, f.deps.Now().Sub(start))
	}
	for {
		if elapsed() >= sched.Total {
			return f.apply(func(s State) State { return TimedOut(s, f.deps.Now()) })
		}

		delay := b.next()
		if err := f.deps.Sleep(f.ctx, delay); err != nil {
			return f.State()
		}
		waited += delay

		intent, err := f.deps.Backend.GetIntent(f.ctx, intentID)
		spent := elapsed()
		if err != nil {
			if f.ctx.Err() != nil {
				return f.State()
			}
			logger.Debug.Printf("payment flow %s: poll %s: %v", f.ID, intentID, err)
			f.apply(func(s State) State { return Polled(s, spent) })
			continue
		}

		s := f.apply(func(s State) State {
			return ApplyIntent(Polled(s, spent), *intent, f.deps.Now())
		})
		if s.Stage.IsTerminal() {
			return s
		}
	}
}

func (f *Flow) finish(s State) {
	amount := "-"
	if s.Amount != nil {
		amount = s.Amount.Display()
	}
	logger.Info.Printf("payment flow %s: %s %s %s", f.ID, s.Kind, amount, s.Stage)

	event := types.PaymentFinishedEvent{
		FlowID:         f.ID,
		IntentID:       lo.FromPtr(s.IntentID),
		Kind:           s.Kind,
		Stage:          s.Stage,
		IdempotencyKey: s.IdempotencyKey,
		Amount:         lo.FromPtr(s.Amount),
		Error:          lo.FromPtr(s.Error),
		StartedAt:      lo.FromPtr(s.StartedAt),
		FinishedAt:     lo.FromPtr(s.FinishedAt),
	}
	if err := f.deps.Publisher.Publish(f.ctx, types.QueuePaymentFinished, event); err != nil {
		logger.Warning.Printf("payment flow %s: publish: %v", f.ID, err)
	}
}

// ConsumeAction hands out the surfaced action URL and clears it.
func (f *Flow) ConsumeAction() (string, bool) {
	var url string
	f.apply(func(s State) State {
		url = lo.FromPtr(s.ActionURL)
		return ActionConsumed(s)
	})
	return url, url != ""
}

// Close cancels the in-flight attempt and waits for its goroutine.
func (f *Flow) Close() {
	f.cancel()
	f.wg.Wait()
}

// Wait blocks until the current attempt reached a terminal stage or the
// flow was closed.
func (f *Flow) Wait() {
	f.wg.Wait()
}
