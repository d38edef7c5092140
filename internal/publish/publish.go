// Package publish hands a compiled concept list to a remote generator
// service over socket.io.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/output"
)

// DefaultEvent is the event carrying the concept list.
const DefaultEvent = "concepts"

// DefaultTimeout bounds connecting and waiting for the acknowledgement.
const DefaultTimeout = 15 * time.Second

// Options configures a publication.
type Options struct {
	URL       string
	Namespace string
	Event     string
	// AckEvent, when set, is the event the server sends once it has
	// accepted the list. Publish waits for it.
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Publish connects to opts.URL, emits doc and disconnects.
func Publish(ctx context.Context, opts Options, doc *output.Document) error {
	if opts.Event == "" {
		opts.Event = DefaultEvent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := ctxlog.FromContext(ctx).With("url", opts.URL, "event", opts.Event)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("failed to parse publish URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("publish URL '%s' needs a scheme and a host", opts.URL)
	}

	// The list travels as plain maps so the client serializes it as JSON.
	payload, err := toWire(doc)
	if err != nil {
		return err
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	opCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	connected := make(chan error, 1)
	acked := make(chan struct{}, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to generator service.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	if opts.AckEvent != "" {
		io.Once(types.EventName(opts.AckEvent), func(...any) {
			acked <- struct{}{}
		})
	}

	io.Connect()
	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %v waiting for socket.io connection", opts.Timeout)
	}

	logger.Info("Publishing concepts.", "concepts", len(doc.Concepts))
	io.Emit(opts.Event, payload)
	if opts.AckEvent == "" {
		return nil
	}

	select {
	case <-acked:
		logger.Debug("Generator service acknowledged the concepts.", "ack_event", opts.AckEvent)
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %v waiting for event '%s'", opts.Timeout, opts.AckEvent)
	}
}

func toWire(doc *output.Document) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode concepts: %w", err)
	}
	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to encode concepts: %w", err)
	}
	return wire, nil
}
