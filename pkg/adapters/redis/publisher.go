package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/statelab/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the Pub/Sub channel snapshots are published on.
const DefaultChannel = "statelab:snapshots"

// ErrNoSnapshot is returned by Latest when nothing was published yet (or it expired).
var ErrNoSnapshot = errors.New("no snapshot published")

// Publisher implements ports.SnapshotPublisher using Redis Pub/Sub.
// Each snapshot is PUBLISHed as JSON and also kept under a "latest" key
// so that late subscribers can catch up. It is not a persistence layer.
type Publisher struct {
	client  *backend.Client
	channel string
	prefix  string
	ttl     time.Duration
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithChannel sets the Pub/Sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithPrefix sets the prefix of the "latest" key.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithTTL sets the expiration of the "latest" key. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

// New creates a publisher connected to address.
func New(address, password string, db int, opts ...Option) *Publisher {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a publisher over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		prefix:  "statelab:",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the channel snapshots are published on.
func (p *Publisher) Channel() string {
	return p.channel
}

// Publish stores snap as the latest snapshot and broadcasts it.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, p.latestKey(), data, p.ttl)
	pipe.Publish(ctx, p.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently published snapshot.
func (p *Publisher) Latest(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	data, err := p.client.Get(ctx, p.latestKey()).Bytes()
	if errors.Is(err, backend.Nil) {
		return snap, ErrNoSnapshot
	}
	if err != nil {
		return snap, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) latestKey() string {
	return p.prefix + "latest"
}
