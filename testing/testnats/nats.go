package testnats

import (
	"context"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const natsImage = "nats:2.10-alpine"

// Server is a NATS broker running in a container, shared by every test in
// the package binary. Tests holding it must not run in parallel.
type Server struct {
	URL string

	container testcontainers.Container
}

var (
	mu     sync.Mutex
	shared *Server
	users  int
)

// Acquire starts the broker on first use and returns it. Every Acquire must
// be paired with a Release.
func Acquire(t *testing.T) *Server {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping NATS integration test in short mode")
	}

	mu.Lock()
	defer mu.Unlock()

	if shared == nil {
		shared = start(t)
	}
	users++
	return shared
}

func start(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        natsImage,
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready"),
		},
		Started: true,
	})
	require.NoError(t, err, "start nats container")

	endpoint, err := c.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)

	return &Server{URL: endpoint, container: c}
}

// Release drops one reference. The container stops with the last one.
func (s *Server) Release(t *testing.T) {
	t.Helper()

	mu.Lock()
	defer mu.Unlock()

	if users--; users > 0 {
		return
	}
	if err := s.container.Terminate(context.Background()); err != nil {
		t.Logf("terminate nats container: %v", err)
	}
	shared = nil
}

// PublishRaw sends data on subject outside of any producer, bypassing the
// envelope encoding.
func (s *Server) PublishRaw(t *testing.T, subject string, data []byte) {
	t.Helper()

	conn, err := nats.Connect(s.URL, nats.Name("testnats"))
	require.NoError(t, err, "connect %s", s.URL)
	defer conn.Close()

	require.NoError(t, conn.Publish(subject, data))
	require.NoError(t, conn.Flush())
}
