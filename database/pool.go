package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"appointly/apperror"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrPoolClosed is returned once Close has been called.
var ErrPoolClosed = errors.New("database pool is closed")

type connectFunc func(ctx context.Context, uri string) (*mongo.Client, error)

// Pool owns the process-wide MongoDB client. The client is created on first
// use; concurrent first callers share one in-flight connection attempt.
type Pool struct {
	uri    string
	dbName string

	connectTimeout time.Duration
	acquireTimeout time.Duration
	txTimeout      time.Duration
	logger         *zap.Logger
	connect        connectFunc

	mu     sync.RWMutex
	client *mongo.Client
	closed bool
	group  singleflight.Group
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

func WithConnectTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.connectTimeout = d }
}

// WithAcquireTimeout bounds how long AcquireSession waits for the client.
func WithAcquireTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.acquireTimeout = d }
}

func WithTransactionTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.txTimeout = d }
}

func WithLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool returns an unconnected pool.
func NewPool(uri, dbName string, opts ...PoolOption) *Pool {
	p := &Pool{
		uri:            uri,
		dbName:         dbName,
		connectTimeout: 10 * time.Second,
		acquireTimeout: 5 * time.Second,
		txTimeout:      15 * time.Second,
		logger:         zap.NewNop(),
		connect:        dial,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Majority())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// DatabaseName is the configured database.
func (p *Pool) DatabaseName() string { return p.dbName }

// Client returns the shared client, connecting on first use.
func (p *Pool) Client(ctx context.Context) (*mongo.Client, error) {
	p.mu.RLock()
	client, closed := p.client, p.closed
	p.mu.RUnlock()
	if closed {
		return nil, apperror.Unavailable("database unavailable", ErrPoolClosed)
	}
	if client != nil {
		return client, nil
	}

	ch := p.group.DoChan("client", func() (interface{}, error) {
		p.mu.RLock()
		existing := p.client
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		// The attempt is shared, so it runs on its own deadline.
		cctx, cancel := context.WithTimeout(context.Background(), p.connectTimeout)
		defer cancel()
		c, err := p.connect(cctx, p.uri)
		if err != nil {
			p.logger.Error("Failed to connect to MongoDB", zap.Error(err))
			return nil, err
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			_ = c.Disconnect(context.Background())
			return nil, ErrPoolClosed
		}
		p.client = c
		p.logger.Info("Connected to MongoDB", zap.String("database", p.dbName))
		return c, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, apperror.Unavailable("database unavailable", res.Err)
		}
		return res.Val.(*mongo.Client), nil
	case <-ctx.Done():
		return nil, apperror.Unavailable("database unavailable", ctx.Err())
	}
}

// Database returns the configured database handle.
func (p *Pool) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(p.dbName), nil
}

// AcquireSession starts a session, waiting at most the acquire timeout for the
// client. The caller must end the session.
func (p *Pool) AcquireSession(ctx context.Context) (mongo.Session, error) {
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	client, err := p.Client(actx)
	if err != nil {
		return nil, err
	}
	sess, err := client.StartSession(options.Session().SetDefaultReadConcern(readconcern.Snapshot()))
	if err != nil {
		return nil, apperror.Unavailable("could not start database session", err)
	}
	return sess, nil
}

// RunInTransaction runs fn inside one multi-document transaction. fn must use
// the ctx it is given so its operations join the transaction. The driver
// retries fn on transient transaction errors; any error from fn aborts.
func (p *Pool) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := p.AcquireSession(ctx)
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	tctx, cancel := context.WithTimeout(ctx, p.txTimeout)
	defer cancel()

	txnOpts := options.Transaction().
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Snapshot())

	_, err = sess.WithTransaction(tctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// Ping checks the primary is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Later calls fail with ErrPoolClosed.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.client == nil {
		return nil
	}
	err := p.client.Disconnect(ctx)
	p.client = nil
	return err
}
