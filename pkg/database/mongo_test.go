package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronit/club-portal/pkg/config"
)

func TestMongoConfigFrom(t *testing.T) {
	cfg := MongoConfigFrom(config.MongoDBConfig{
		URI:            "mongodb://mongo:27017",
		Database:       "club_portal",
		ConnectTimeout: 3 * time.Second,
	})

	assert.Equal(t, "mongodb://mongo:27017", cfg.URI)
	assert.Equal(t, "club_portal", cfg.Database)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
}

func TestNewMongo_InvalidURI(t *testing.T) {
	_, err := NewMongo(context.Background(), &MongoConfig{URI: "not-a-uri", Database: "x"})
	assert.Error(t, err)
}

func TestNewMongo_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	db, err := NewMongo(ctx, &MongoConfig{URI: uri, Database: "club_portal_test"})
	require.NoError(t, err)
	defer db.Close(ctx)

	assert.NoError(t, db.HealthCheck(ctx))
	assert.Equal(t, "club_portal_test", db.Database().Name())
	assert.Equal(t, "blogs", db.Collection("blogs").Name())
}
