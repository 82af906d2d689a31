package client

import (
	"context"
	"log"
	"time"

	"salehero-chat/internal/history"
	"salehero-chat/internal/ratelimit"
	"salehero-chat/internal/session"
	"salehero-chat/internal/store"
)

// Options configures a chat client.
type Options struct {
	BrokerURL       string
	HistoryURL      string
	AccessToken     string
	ReconnectDelay  time.Duration
	HistoryPageSize int
	// OnCooldownTick surfaces the rate-limit countdown to the view.
	OnCooldownTick func(remaining int)
	// OnFlightCleared fires when the in-flight send guard releases.
	OnFlightCleared func()
	// Dialer overrides the websocket dialer, used by tests.
	Dialer session.Dialer
}

// Client is the composition root of one chat session: one store, one
// transport session, one rate limiter, one history loader. No ambient
// singletons; every consumer gets the store by reference.
type Client struct {
	Store   *store.Store
	Session *session.Session
	Limiter *ratelimit.Limiter
	loader  *history.Loader
}

// New wires the session components together.
func New(opts Options) *Client {
	st := store.New()
	sess := session.New(st, session.Options{
		BrokerURL:      opts.BrokerURL,
		AccessToken:    opts.AccessToken,
		ReconnectDelay: opts.ReconnectDelay,
		Dialer:         opts.Dialer,
	})
	lim := ratelimit.New(st, sess.Send, ratelimit.Options{
		OnCooldownTick:  opts.OnCooldownTick,
		OnFlightCleared: opts.OnFlightCleared,
	})
	st.Subscribe(lim.LogGrew)

	return &Client{
		Store:   st,
		Session: sess,
		Limiter: lim,
		loader:  history.New(opts.HistoryURL, opts.AccessToken, opts.HistoryPageSize),
	}
}

// Start connects to the broker and kicks off the one-time history load. The
// two run independently; history is unconditionally prepended, so a live
// message racing the fetch could interleave ahead of it. Kept as-is, the
// window is mount-time only.
func (c *Client) Start(ctx context.Context) {
	c.Session.Connect()
	go func() {
		if err := c.loader.LoadInitial(ctx, c.Store); err != nil {
			log.Printf("chat client: history load failed: %v", err)
		}
	}()
}

// Send runs content through the rate limiter; false means rejected.
func (c *Client) Send(content string) bool {
	return c.Limiter.TrySend(content)
}

// Close tears down the transport session.
func (c *Client) Close() {
	c.Session.Close()
}
