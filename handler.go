package main

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/oschwald/geoip2-golang"

	"bgp_tester/bgp"
)

const defaultMessageLimit = 100

// apiServer holds everything the HTTP layer needs: the session manager is
// constructed once in main and passed here by reference, never looked up
// through a global.
type apiServer struct {
	cfg     *config
	session *bgp.Session
	geo     *geoip2.Reader // nil when no MaxMind database is configured
	rtt     *rttMonitor
}

func initRouter(app *fiber.App, srv *apiServer) {
	app.Get("/", srv.index)

	api := app.Group("/api/v1", authRequired(srv.cfg))
	api.Get("/heartbeat", srv.heartbeat)

	b := api.Group("/bgp")
	b.Get("/status", srv.status)
	b.Get("/stats", srv.stats)
	b.Get("/messages", srv.messages)
	b.Post("/connect", srv.connect)
	b.Post("/disconnect", srv.disconnect)
	b.Put("/config", srv.updateConfig)
}

func (s *apiServer) index(c fiber.Ctx) error {
	return c.SendString("pong")
}

func (s *apiServer) heartbeat(c fiber.Ctx) error {
	hostname, _ := os.Hostname()

	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "ok",
		Data: map[string]any{
			"version":   SERVER_SIGNATURE,
			"hostname":  hostname,
			"kernel":    getOsUname(),
			"uptime":    getUptimeSeconds(),
			"tcp":       getTcpConnections(),
			"udp":       getUdpConnections(),
			"timestamp": time.Now().UnixMilli(),
		},
	})
}

func (s *apiServer) status(c fiber.Ctx) error {
	data := StatusResponse{ConnectionStatus: s.session.Status()}
	if s.geo != nil {
		data.PeerCountry = lookupCountry(s.geo, data.Config.RemoteHost)
	}

	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "ok",
		Data:    data,
	})
}

func (s *apiServer) stats(c fiber.Ctx) error {
	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "ok",
		Data: StatsResponse{
			Stats:     s.session.Stats(),
			PeerRttMs: s.rtt.CurrentMs(),
		},
	})
}

func (s *apiServer) messages(c fiber.Ctx) error {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(AgentApiResponse{
				Code:    fiber.StatusBadRequest,
				Message: "invalid limit",
			})
		}
		limit = n
	}

	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "ok",
		Data:    s.session.MessageLog(limit),
	})
}

func (s *apiServer) connect(c fiber.Ctx) error {
	if err := s.session.Start(); err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, bgp.ErrAlreadyConnected) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(AgentApiResponse{
			Code:    status,
			Message: err.Error(),
		})
	}

	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "BGP connection established",
	})
}

func (s *apiServer) disconnect(c fiber.Ctx) error {
	s.session.Stop()
	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "BGP connection stopped",
	})
}

func (s *apiServer) updateConfig(c fiber.Ctx) error {
	var req ConfigUpdateRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(AgentApiResponse{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	cfg := bgp.SessionConfig{
		ASNumber:   req.ASNumber,
		RouterID:   req.RouterID,
		HoldTime:   req.HoldTime,
		Version:    req.Version,
		RemoteHost: req.RemoteHost,
		RemotePort: req.RemotePort,
	}
	if cfg.Version == 0 {
		cfg.Version = defaultBGPVersion
	}
	if cfg.RemotePort == 0 {
		cfg.RemotePort = defaultBGPPort
	}

	if req.Passthrough != "" {
		data, err := decodePassthrough(req.Passthrough, s.cfg.Auth.PassthroughJwtSecret)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(AgentApiResponse{
				Code:    fiber.StatusBadRequest,
				Message: err.Error(),
			})
		}
		if data.ASN != 0 {
			cfg.ASNumber = data.ASN
		}
		if data.Port != 0 {
			cfg.RemotePort = data.Port
		}
	}

	if err := s.session.UpdateConfig(cfg); err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, bgp.ErrSessionActive) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(AgentApiResponse{
			Code:    status,
			Message: err.Error(),
		})
	}

	logger.Printf("Session config updated: peer %s, AS%d", cfg.RemoteAddr(), cfg.ASNumber)
	return c.JSON(AgentApiResponse{
		Code:    fiber.StatusOK,
		Message: "config updated",
		Data:    cfg,
	})
}
