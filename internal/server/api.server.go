package serverApp

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	config "mobile-banking-core/configs"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/middleware"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"mobile-banking-core/internal/repository"

	historyHandler "mobile-banking-core/internal/handler/history"
	kycHandler "mobile-banking-core/internal/handler/kyc"
	paymentHandler "mobile-banking-core/internal/handler/payment"
	historyService "mobile-banking-core/internal/service/history"
	kycService "mobile-banking-core/internal/service/kyc"
	paymentService "mobile-banking-core/internal/service/payment"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
	disabled  = "disabled"
)

// App is what Setup wires: the long-lived services that need closing on shutdown.
type App struct {
	Kyc        kycService.IService
	Payment    paymentService.IService
	uploadPool *ants.Pool
	publisher  *rabbitmq.Publisher
	workers    atomic.Pointer[Workers]
}

// AttachWorkers hands the history consumers to the app so /health reports
// them and Close stops them.
func (a *App) AttachWorkers(w *Workers) {
	a.workers.Store(w)
}

// Close stops the consumers and every session and flow, then releases the
// upload workers.
func (a *App) Close() {
	if w := a.workers.Swap(nil); w != nil {
		w.Stop()
	}
	a.Kyc.Close()
	a.Payment.Close()
	if err := a.uploadPool.ReleaseTimeout(10 * time.Second); err != nil {
		logger.Warning.Printf("upload pool release: %v", err)
	}
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
}

// Setup initializes the HTTP server with middleware and routes
func Setup(engine *gin.Engine, payload *config.SetupServerDto) (*App, error) {
	InitMiddleware(engine)

	app, err := newApp(payload)
	if err != nil {
		return nil, err
	}
	engine.GET("/health", healthHandler(payload, app))

	e := engine.Group(BasePath())
	InitRoutes(e, payload, app)
	return app, nil
}

// BasePath returns the base API path
func BasePath() string {
	return "/api"
}

// InitMiddleware initializes global middleware
func InitMiddleware(e *gin.Engine) {
	e.Use(middleware.Cors())
	e.Use(middleware.RequestInit())
	e.Use(middleware.ResponseInit())
}

func healthHandler(payload *config.SetupServerDto, app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		rabbitmqHealth := disabled
		redisHealth := disabled
		databaseHealth := disabled
		workersHealth := disabled

		if payload.Rb != nil {
			rabbitmqHealth = unhealthy
			if !payload.Rb.IsClosed() {
				rabbitmqHealth = healthy
			}
		}
		if payload.Rds != nil {
			redisHealth = unhealthy
			if payload.Rds.Ping() == nil {
				redisHealth = healthy
			}
		}
		if payload.Db != nil {
			databaseHealth = unhealthy
			if !payload.Db.IsCloseConnection() {
				databaseHealth = healthy
			}
		}
		if w := app.workers.Load(); w != nil {
			workersHealth = unhealthy
			if w.Healthy() {
				workersHealth = healthy
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": http.StatusOK,
			"service": gin.H{
				"rabbitmq": gin.H{"status": rabbitmqHealth},
				"redis":    gin.H{"status": redisHealth},
				"database": gin.H{"status": databaseHealth},
				"workers":  gin.H{"status": workersHealth},
			},
		})
	}
}

func newApp(payload *config.SetupServerDto) (*App, error) {
	env := payload.Env

	uploadPool, err := ants.NewPool(env.UploadWorkerPoolCap, ants.WithOptions(ants.Options{
		ExpiryDuration: time.Minute,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("upload worker panic: %v", i)
		},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload pool: %w", err)
	}

	app := &App{uploadPool: uploadPool}

	var publisher rabbitmq.IPublisher = rabbitmq.NopPublisher{}
	if payload.Rb != nil {
		app.publisher = rabbitmq.NewPublisher(payload.Ctx, payload.Rb)
		publisher = app.publisher
	}

	var journal paymentService.KeyJournal
	var snapshots paymentService.SnapshotStore
	if payload.Rds != nil {
		journal = paymentService.NewRedisKeyJournal(payload.Rds, env.IdempotencyKeyTTL)
		snapshots = paymentService.NewRedisSnapshotStore(payload.Rds)
	}

	app.Kyc = kycService.NewService(payload.Ctx, kycService.Options{
		Backend:      payload.Backend,
		Archive:      payload.S3,
		Pool:         uploadPool,
		Publisher:    publisher,
		PollInterval: env.KycPollInterval,
	})

	app.Payment = paymentService.NewService(payload.Ctx, paymentService.Options{
		Backend: payload.Backend,
		Schedule: paymentService.PollSchedule{
			Initial: env.PaymentPollInitial,
			Max:     env.PaymentPollMax,
			Total:   env.PaymentPollTotal,
		},
		Journal:         journal,
		Snapshots:       snapshots,
		Publisher:       publisher,
		DefaultCurrency: env.DefaultCurrency,
	})

	return app, nil
}

func InitRoutes(e *gin.RouterGroup, payload *config.SetupServerDto, app *App) {
	ctx := payload.Ctx
	auth := middleware.AuthMiddleware(payload.Env.AppJWTSecret)

	// === KYC ===
	KycHandler := kycHandler.NewHandler(ctx, app.Kyc)
	KycHandler.NewRoutes(e, auth)

	// === Payment ===
	PaymentHandler := paymentHandler.NewHandler(ctx, app.Payment)
	PaymentHandler.NewRoutes(e, auth)

	// === History ===
	if payload.Db != nil {
		rp := repository.NewRepository(payload.Db)
		HistoryService := historyService.NewService(ctx, rp)
		HistoryHandler := historyHandler.NewHandler(ctx, HistoryService)
		HistoryHandler.NewRoutes(e, auth)
	}
}
