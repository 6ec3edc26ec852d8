// Package observability wires tracing and metrics for the bot.
//
// This file defines the domain counters: messages received, trial bookings,
// menus shown, human takeovers, and rate-limit denials. Each counter is
// exported to Prometheus and additionally kept as an atomic value so the
// operator report can read a consistent snapshot without scraping /metrics.
package observability

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	botMessages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_messages_received_total",
		Help: "Total inbound messages handed to the router.",
	})
	botBookings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_bookings_total",
		Help: "Total trial-class bookings completed.",
	})
	botMenus = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_menus_shown_total",
		Help: "Total times the main menu was emitted.",
	})
	botTakeovers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_human_takeovers_total",
		Help: "Total human-takeover pauses created.",
	})
	botRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_rate_limited_total",
		Help: "Total inbound messages denied by the sender rate limit.",
	})
)

func init() {
	prometheus.MustRegister(botMessages, botBookings, botMenus, botTakeovers, botRateLimited)
}

// Counters tracks the bot's domain metrics. The zero value is ready to use;
// a process normally shares one instance across router and engine.
type Counters struct {
	messages    atomic.Int64
	bookings    atomic.Int64
	menus       atomic.Int64
	takeovers   atomic.Int64
	rateLimited atomic.Int64
}

// Snapshot is a point-in-time read of the counters for the daily report.
type Snapshot struct {
	MessagesReceived int64 `json:"messages_received"`
	Bookings         int64 `json:"bookings"`
	MenusShown       int64 `json:"menus_shown"`
	HumanTakeovers   int64 `json:"human_takeovers"`
	RateLimited      int64 `json:"rate_limited"`
}

// IncMessages records one inbound message.
func (c *Counters) IncMessages() {
	c.messages.Add(1)
	botMessages.Inc()
}

// IncBookings records one completed booking.
func (c *Counters) IncBookings() {
	c.bookings.Add(1)
	botBookings.Inc()
}

// IncMenus records one main-menu emission.
func (c *Counters) IncMenus() {
	c.menus.Add(1)
	botMenus.Inc()
}

// IncTakeovers records one human-takeover pause.
func (c *Counters) IncTakeovers() {
	c.takeovers.Add(1)
	botTakeovers.Inc()
}

// IncRateLimited records one rate-limit denial.
func (c *Counters) IncRateLimited() {
	c.rateLimited.Add(1)
	botRateLimited.Inc()
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		MessagesReceived: c.messages.Load(),
		Bookings:         c.bookings.Load(),
		MenusShown:       c.menus.Load(),
		HumanTakeovers:   c.takeovers.Load(),
		RateLimited:      c.rateLimited.Load(),
	}
}
