package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gronit/club-portal/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoConfigFrom maps application config onto client settings
func MongoConfigFrom(c config.MongoDBConfig) *MongoConfig {
	return &MongoConfig{URI: c.URI, Database: c.Database, ConnectTimeout: c.ConnectTimeout}
}

// MongoDB wraps a mongo client bound to one database
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects and pings; the client is disconnected if the ping fails
func NewMongo(ctx context.Context, cfg *MongoConfig) (*MongoDB, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoDB{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the bound database handle
func (m *MongoDB) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection in the bound database
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// HealthCheck pings the primary
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
