// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package logsink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/moldyngo/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	DefaultRelayEvent   = "driver_line"
	defaultRelayTimeout = 15 * time.Second
)

// RelayConfig is the `relay` block of an objective configuration.
type RelayConfig struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
	// ConnectTimeout is a Go duration string; defaults to 15s.
	ConnectTimeout string `hcl:"connect_timeout,optional"`
}

// Relay emits each driver line as a socket.io event so that dashboards can
// follow a batch while it runs.
type Relay struct {
	mu     sync.Mutex
	client *socket.Socket
	event  string
	batch  string
	seq    int
}

// DialRelay connects to the socket.io server described by cfg and returns a
// sink that tags every line with batch.
func DialRelay(ctx context.Context, cfg RelayConfig, batch string) (*Relay, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "relay", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("relay URL %q must be absolute", cfg.URL)
	}

	timeout := defaultRelayTimeout
	if cfg.ConnectTimeout != "" {
		timeout, err = time.ParseDuration(cfg.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse relay connect_timeout: %w", err)
		}
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}
	event := cfg.Event
	if event == "" {
		event = DefaultRelayEvent
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	logger.Debug("Connecting relay...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io relay connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io relay: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io relay", timeout)
	}

	logger.Info("Relay connected.", "sid", io.Id(), "event", event)
	return &Relay{client: io, event: event, batch: batch}, nil
}

// WriteLine implements LineSink.
func (r *Relay) WriteLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return errors.New("relay closed")
	}
	if !r.client.Connected() {
		return errors.New("relay disconnected")
	}
	r.seq++
	r.client.Emit(r.event, map[string]any{
		"batch": r.batch,
		"seq":   r.seq,
		"line":  line,
	})
	return nil
}

// Close implements LineSink.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		r.client.Disconnect()
		r.client = nil
	}
	return nil
}
