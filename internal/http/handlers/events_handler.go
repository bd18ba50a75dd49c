package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"medicart/internal/events"
	applog "medicart/internal/log"
)

type EventsHandler struct {
	Bus       *events.Bus
	Keepalive time.Duration
}

// Stream serves bus events as server-sent events until the client goes away.
// GET /admin/events
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ch, cancel := h.Bus.Subscribe(16)
	every := h.Keepalive
	if every <= 0 {
		every = 25 * time.Second
	}
	applog.Info(c, "events.subscribe", map[string]any{"subscribers": h.Bus.Subscribers()})

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		tick := time.NewTicker(every)
		defer tick.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					applog.Warn(nil, "events.encode", err, map[string]any{"type": ev.Type})
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			case <-tick.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			// A failed flush means the client disconnected.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}
