// Container healthcheck: exits 0 when the API answers /healthz.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

func main() {
	os.Exit(check())
}

func check() int {
	addr := normalizeAddr(os.Getenv("HTTP_ADDR"))

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/healthz", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}

// normalizeAddr points the probe at loopback: the server binds 0.0.0.0 in
// a container but the healthcheck runs inside that same container.
func normalizeAddr(raw string) string {
	if raw == "" {
		return "127.0.0.1:8080"
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "127.0.0.1:8080"
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
