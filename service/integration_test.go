//go:build integration

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c360/jsonindex/adapter"
	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/engine"
	"github.com/c360/jsonindex/natsclient"
)

func startNATS(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)

	return "nats://" + host + ":" + port.Port()
}

func TestServiceOverNATS(t *testing.T) {
	url := startNATS(t)
	ctx := context.Background()

	serverSide, err := natsclient.NewClient(url, natsclient.WithName("jsonindexd-test"))
	require.NoError(t, err)
	require.NoError(t, serverSide.Connect(ctx))
	t.Cleanup(func() { _ = serverSide.Close(ctx) })

	eng := engine.New(config.Default(), nil, nil)
	require.NoError(t, eng.Adapter().RegisterEntityType("entity", adapter.TypeConfig{IDProperty: "id"}))

	svc := New(eng, serverSide, config.DefaultFile().Subjects, config.Ingest{}, nil, nil)
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() { _ = svc.Stop() })

	clientSide, err := natsclient.NewClient(url)
	require.NoError(t, err)
	require.NoError(t, clientSide.Connect(ctx))
	t.Cleanup(func() { _ = clientSide.Close(ctx) })

	// Ingest a document and wait for the async append to land.
	err = clientSide.Publish(ctx, "jsonindex.ingest",
		[]byte(`{"entity":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, items := eng.Stats()
		return items > 0
	}, 5*time.Second, 50*time.Millisecond)

	// Lookup over request-reply.
	payload, err := json.Marshal(LookupRequest{Root: "entity", Field: "name", Key: "1"})
	require.NoError(t, err)

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	data, err := clientSide.Request(reqCtx, "jsonindex.lookup", payload)
	require.NoError(t, err)

	var resp LookupResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Empty(t, resp.Error)
	assert.Len(t, resp.Items, 1)
}
