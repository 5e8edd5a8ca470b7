package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/demosite"
)

// mockHandler creates a simple test handler
func mockHandler(response string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(response))
	})
}

// createTestDeps creates ServerDependencies with a mock storefront for testing
func createTestDeps(t testing.TB, port string) ServerDependencies {
	return ServerDependencies{
		ServerConfig: config.ServerConfig{Port: port},
		Storefront:   mockHandler("storefront"),
		Logger:       zaptest.NewLogger(t),
	}
}

// startTestServer starts a server with the given dependencies and returns listener, server, and port
func startTestServer(t *testing.T, deps ServerDependencies) (net.Listener, *http.Server, int) {
	t.Helper()
	listener, server, err := StartServer(deps)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	return listener, server, port
}

// httpGet makes an HTTP GET request with client and returns response body and status
func httpGet(t *testing.T, client *http.Client, url string) (string, int) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request to %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode
}

func TestStartServer_SuccessfulStartup(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "0")

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	// THEN
	if port == 0 {
		t.Error("Expected non-zero port")
	}

	body, status := httpGet(t, http.DefaultClient, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if body != "storefront" {
		t.Errorf("Expected 'storefront', got '%s'", body)
	}
}

func TestStartServer_InvalidPort(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "99999") // Invalid port

	// WHEN
	listener, server, err := StartServer(deps)

	// THEN
	if err == nil {
		listener.Close()
		server.Close()
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestStartServer_PortAlreadyInUse(t *testing.T) {
	// GIVEN
	existingListener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to create test listener: %v", err)
	}
	defer existingListener.Close()
	port := existingListener.Addr().(*net.TCPAddr).Port

	deps := createTestDeps(t, fmt.Sprintf("%d", port))

	// WHEN
	listener, server, err := StartServer(deps)

	// THEN
	if err == nil {
		listener.Close()
		server.Close()
		t.Error("Expected error for port already in use, got nil")
	}
}

func TestStartServer_Routes(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "0")

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// THEN
	testCases := []struct {
		path     string
		expected string
	}{
		{"/", "storefront"},
		{"/products", "storefront"},
		{"/healthz", "ok"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			body, status := httpGet(t, http.DefaultClient, baseURL+tc.path)
			if status != http.StatusOK {
				t.Errorf("Expected status 200, got %d", status)
			}
			if body != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestStartServer_DemoStorefront(t *testing.T) {
	// GIVEN
	cfg := config.ServerConfig{Port: "0", ConsentPopup: true, DemoEmail: "demo@shopcheck.test", DemoPassword: "pw", DemoName: "Demo"}
	storefront, err := demosite.NewServer(demosite.NewStore(demosite.DefaultCatalog()), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create storefront: %v", err)
	}
	deps := createTestDeps(t, "0")
	deps.Storefront = storefront

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// WHEN
	_, addStatus := httpGet(t, client, baseURL+"/add_to_cart/2?quantity=2")
	body, status := httpGet(t, client, baseURL+"/view_cart")

	// THEN
	if addStatus != http.StatusOK {
		t.Errorf("Expected add to cart status 200, got %d", addStatus)
	}
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if !strings.Contains(body, `id="product-2"`) {
		t.Errorf("Expected cart to list product 2, got:\n%s", body)
	}
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "0")

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	_, status := httpGet(t, http.DefaultClient, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Fatal("Server not responding")
	}

	// THEN
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Failed to shutdown server gracefully: %v", err)
	}

	_, getErr := http.Get(fmt.Sprintf("http://localhost:%d/", port))
	if getErr == nil {
		t.Error("Expected error after shutdown, server still responding")
	}
}

func TestStartServer_ShutdownWithActiveConnections(t *testing.T) {
	// GIVEN
	slowHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("slow"))
	})

	deps := createTestDeps(t, "0")
	deps.Storefront = slowHandler

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	responseCh := make(chan error, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err == nil {
			resp.Body.Close()
		}
		responseCh <- err
	}()

	// Give request time to start
	time.Sleep(50 * time.Millisecond)

	// WHEN
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	// THEN
	select {
	case err := <-responseCh:
		if err != nil {
			t.Logf("Request error (acceptable): %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("Request did not complete in time")
	}
}

// BenchmarkStartServer benchmarks server startup
func BenchmarkStartServer(b *testing.B) {
	deps := createTestDeps(b, "0")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		listener, server, err := StartServer(deps)
		if err != nil {
			b.Fatalf("Failed to start server: %v", err)
		}
		server.Close()
		listener.Close()
	}
}

func TestWaitForShutdown_Signals(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGTERM, syscall.SIGINT} {
		t.Run(sig.String(), func(t *testing.T) {
			// GIVEN
			deps := createTestDeps(t, "0")
			listener, server, _ := startTestServer(t, deps)
			defer listener.Close()

			shutdown := make(chan os.Signal, 1)

			// WHEN
			errCh := make(chan error, 1)
			go func() {
				errCh <- WaitForShutdown(server, shutdown, deps.Logger)
			}()
			shutdown <- sig

			// THEN
			select {
			case err := <-errCh:
				if err != nil {
					t.Errorf("Expected nil error, got: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("WaitForShutdown did not complete")
			}
		})
	}
}

func TestWaitForShutdown_ForcedClose(t *testing.T) {
	// GIVEN
	release := make(chan struct{})
	deps := createTestDeps(t, "0")
	deps.Storefront = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer close(release)

	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err == nil {
			resp.Body.Close()
		}
	}()
	time.Sleep(50 * time.Millisecond)

	shutdown := make(chan os.Signal, 1)
	shutdown <- syscall.SIGTERM

	// WHEN
	err := WaitForShutdownWithTimeout(server, shutdown, time.Nanosecond, deps.Logger)

	// THEN
	if err != nil {
		t.Errorf("Expected forced close to succeed, got: %v", err)
	}
}

func TestRunServe_FullIntegration(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "0")

	// WHEN
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunServe(deps)
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("Failed to get process: %v", err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to send signal: %v", err)
	}

	// THEN
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down within timeout")
	}
}

func TestRunServe_StartupFailure(t *testing.T) {
	// GIVEN
	deps := createTestDeps(t, "99999") // Invalid port

	// WHEN
	err := RunServe(deps)

	// THEN
	if err == nil {
		t.Error("Expected error for invalid port, got nil")
	}
}
