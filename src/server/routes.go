package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/fakesub/src/eventsub"
	"github.com/orchestra-mcp/fakesub/src/service"
	"github.com/orchestra-mcp/fakesub/src/types"
	"github.com/rs/zerolog"
)

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/ws/info", s.handleInfo)
	s.app.Get("/reload", s.handleReload)
	s.app.Get("/list", s.handleList)
	s.app.Post("/write", s.handleWrite)
	s.app.Get("/write/:id", s.handleWriteMessage)
	s.app.Post("/eventsub/subscriptions", s.handleSubscribe)
	s.app.Get("/eventsub/subscriptions", s.handleListSubscriptions)
	s.app.Delete("/eventsub/subscriptions", s.handleDeleteSubscription)
}

func (s *Server) handleRoot(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "message": "Fake Twitch Server reporting in"})
}

func (s *Server) handleInfo(c fiber.Ctx) error {
	h := s.service.Hub()
	return c.JSON(fiber.Map{
		"websocket":  true,
		"endpoint":   "/ws",
		"clients":    h.ClientCount(),
		"client_ids": h.ConnectedClients(),
		"bridge":     s.service.BridgeAvailable(),
	})
}

func (s *Server) handleReload(c fiber.Ctx) error {
	count, err := s.service.Reload()
	if err != nil {
		// count carries the message too, for drivers that only read count
		return c.JSON(fiber.Map{"ok": false, "count": err.Error(), "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true, "count": count})
}

func (s *Server) handleList(c fiber.Ctx) error {
	return c.JSON(s.service.MessageKeys())
}

func (s *Server) handleWrite(c fiber.Ctx) error {
	var payload types.Payload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return writeError(c, "Invalid JSON: "+err.Error())
	}
	if payload == nil {
		return writeError(c, "Invalid JSON: expected an object")
	}
	if err := s.service.Broadcast(payload); err != nil {
		return writeError(c, err.Error())
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleWriteMessage(c fiber.Ctx) error {
	id := c.Params("id")
	err := s.service.BroadcastEntry(id)
	switch {
	case errors.Is(err, service.ErrUnknownMessage):
		return writeError(c, "No message with id "+id)
	case err != nil:
		return writeError(c, err.Error())
	}
	return c.JSON(fiber.Map{"ok": true})
}

func writeError(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": msg})
}

func (s *Server) handleSubscribe(c fiber.Ctx) error {
	var req eventsub.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid JSON: " + err.Error()})
	}
	sub := s.subs.Create(req)
	return c.JSON(fiber.Map{"data": []types.Subscription{sub}})
}

func (s *Server) handleListSubscriptions(c fiber.Ctx) error {
	subs := s.subs.List()
	return c.JSON(fiber.Map{"data": subs, "total": len(subs)})
}

func (s *Server) handleDeleteSubscription(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing or invalid id"})
	}
	if err := s.subs.Delete(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// requestLogger logs every control request at debug level.
func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
