package main

import (
	"github.com/gofiber/fiber/v3"
)

// accessLogMiddleware prints each request when debug logging is on. Fiber's
// trusted-proxy config already resolved the client IP by the time c.IP()
// is called.
func accessLogMiddleware(debug bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		if debug {
			logger.Debugf("%s %s from %s", c.Method(), c.Path(), c.IP())
		}
		return c.Next()
	}
}
