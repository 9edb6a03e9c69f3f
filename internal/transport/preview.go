package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Preview serves frames to websocket clients, so an animation can be watched
// without the hardware. Routes:
//
//	GET /frames  websocket; each binary message is a frame of packed RGB
//	GET /frame   the latest frame as a JSON array of hex colors
type Preview struct {
	addr     string
	logger   *slog.Logger
	router   *chi.Mux
	upgrader websocket.Upgrader

	mu      sync.Mutex
	last    led.LEDs
	clients map[*previewClient]struct{}
}

var (
	_ Transport    = (*Preview)(nil)
	_ Runner       = (*Preview)(nil)
	_ http.Handler = (*Preview)(nil)
)

type previewClient struct {
	conn *websocket.Conn
	// send holds at most the newest unsent frame.
	send chan []byte
}

// NewPreview creates a preview server that listens on addr once Run is
// called.
func NewPreview(addr string, logger *slog.Logger) *Preview {
	p := &Preview{
		addr:    addr,
		logger:  logger,
		router:  chi.NewRouter(),
		clients: make(map[*previewClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	p.router.Get("/frames", p.handleFrames)
	p.router.Get("/frame", p.handleFrame)

	return p
}

func (p *Preview) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

// Run serves HTTP until ctx is canceled.
func (p *Preview) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    p.addr,
		Handler: p,
	}

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "failed to shut down preview server")
		}
		return ctx.Err()
	})

	errg.Go(func() error {
		p.logger.Info(
			"serving preview",
			"addr", p.addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "preview server failed")
		}
		return nil
	})

	return errg.Wait()
}

// Write broadcasts the frame to every connected client. Slow clients skip
// frames rather than block the caller.
func (p *Preview) Write(leds led.LEDs) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = append(p.last[:0], leds...)
	for c := range p.clients {
		c.push(p.pixels())
	}

	return nil
}

// Close disconnects every client.
func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.clients {
		c.conn.Close()
	}
	return nil
}

func (p *Preview) handleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Debug(
			"failed to upgrade preview client",
			"error", err)
		return
	}

	c := &previewClient{
		conn: conn,
		send: make(chan []byte, 1),
	}

	p.mu.Lock()
	p.clients[c] = struct{}{}
	if p.last != nil {
		c.push(p.pixels())
	}
	p.mu.Unlock()

	p.logger.Debug(
		"preview client connected",
		"remote", r.RemoteAddr)

	go c.writeLoop()

	// Drain the client so close frames are handled.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	p.mu.Lock()
	delete(p.clients, c)
	close(c.send)
	p.mu.Unlock()

	conn.Close()

	p.logger.Debug(
		"preview client disconnected",
		"remote", r.RemoteAddr)
}

func (p *Preview) handleFrame(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	colors := make([]led.RGBColor, len(p.last))
	copy(colors, p.last)
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(colors); err != nil {
		p.logger.Debug(
			"failed to write frame response",
			"error", err)
	}
}

// pixels returns a copy of the last frame as packed RGB. p.mu must be held.
func (p *Preview) pixels() []byte {
	return append([]byte(nil), p.last.AsPixels()...)
}

// push queues b, replacing any frame the client has not been sent yet. Only
// one goroutine may push at a time.
func (c *previewClient) push(b []byte) {
	select {
	case c.send <- b:
		return
	default:
	}

	select {
	case <-c.send:
	default:
	}
	c.send <- b
}

func (c *previewClient) writeLoop() {
	for b := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
			return
		}
	}
}
