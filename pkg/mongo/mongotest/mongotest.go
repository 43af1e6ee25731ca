//go:build integration

// Package mongotest starts a disposable MongoDB for repository integration tests.
package mongotest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	driver "go.mongodb.org/mongo-driver/mongo"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/mongo"
)

const image = "mongo:7"

var (
	once      sync.Once
	uri       string
	startErr  error
	container testcontainers.Container
)

func start(ctx context.Context) {
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
	}
	container, startErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if startErr != nil {
		return
	}
	uri, startErr = container.PortEndpoint(ctx, "27017/tcp", "mongodb")
}

// Database returns a fresh database on a shared container. The database is dropped
// when the test ends; the container lives for the whole test binary.
func Database(t *testing.T) *driver.Database {
	t.Helper()
	ctx := context.Background()
	once.Do(func() { start(ctx) })
	if startErr != nil {
		t.Fatalf("start mongo container: %v", startErr)
	}

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	client, err := mongo.New(ctx, config.MongoConfig{
		URI:            uri,
		Database:       name,
		ConnectTimeout: 10 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Database().Drop(context.Background())
		_ = client.Close(context.Background())
	})
	return client.Database()
}
