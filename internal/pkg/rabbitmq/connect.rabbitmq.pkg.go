package rabbitmq

import (
	"context"
	"fmt"
	"mobile-banking-core/internal/pkg/logger"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectionManager owns the broker connection and redials it in the
// background after the broker drops it.
type ConnectionManager struct {
	conn        *amqp.Connection
	mu          sync.Mutex
	url         string
	isConnected bool
	ctx         context.Context
	cancel      context.CancelFunc
}

type QueueConfig struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{Durable: true}
}

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	URI      string
}

func (c *Config) url() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.Username, c.Password, c.Host, c.Port)
}

func NewConnectionManager(ctx context.Context, config *Config) (*ConnectionManager, error) {
	ctx, cancel := context.WithCancel(ctx)

	cm := &ConnectionManager{
		url:    config.url(),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := cm.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return cm, nil
}

func (cm *ConnectionManager) connect() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.isConnected {
		return nil
	}
	if err := cm.ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}

	conn, err := amqp.Dial(cm.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	cm.conn = conn
	cm.isConnected = true

	go cm.connectionMonitor(conn.NotifyClose(make(chan *amqp.Error, 1)))

	return nil
}

func (cm *ConnectionManager) connectionMonitor(closed chan *amqp.Error) {
	select {
	case <-cm.ctx.Done():
		return
	case err, ok := <-closed:
		if !ok && cm.ctx.Err() != nil {
			return
		}
		cm.mu.Lock()
		cm.isConnected = false
		cm.mu.Unlock()
		logger.Warning.Printf("rabbitmq connection lost: %v, reconnecting", err)
	}

	backoff := &exponentialBackoff{min: time.Second, max: 30 * time.Second, factor: 2}
	for backoff.sleep(cm.ctx) {
		if err := cm.connect(); err != nil {
			logger.Warning.Printf("rabbitmq reconnect failed: %v, retrying in %s", err, backoff.curr)
			continue
		}
		logger.Info.Println("rabbitmq reconnected")
		return
	}
}

func (cm *ConnectionManager) GetConnection() *amqp.Connection {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.ctx.Err() != nil {
		return nil
	}
	return cm.conn
}

func (cm *ConnectionManager) Close() error {
	cm.cancel()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.isConnected = false
	if cm.conn == nil {
		return nil
	}
	err := cm.conn.Close()
	cm.conn = nil
	if err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (cm *ConnectionManager) IsClosed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.ctx.Err() != nil || !cm.isConnected
}
