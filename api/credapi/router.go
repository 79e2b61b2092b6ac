// Package credapi is the HTTP API of credhouse. Handlers only translate
// between http and the lifecycle engine; all rules live in the engine.
package credapi

import (
	"embed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/credhouse/credhouse/internal/version"
	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/verification"
)

//go:embed openapi.yaml
var assets embed.FS

// Register mounts all API routes under the provided group.
func Register(
	r fiber.Router, serverURL string, engine *lifecycle.Engine, protocol verification.Protocol,
) error {
	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "credapi: failed to read openapi.yaml")
	}
	// Update servers section to point to this instance
	openapiData := updateOpenAPIServers(openapiRaw, serverURL)

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)
	r.Get(
		"/version", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"version": version.VERSION})
		},
	)

	store := session.New(
		session.Config{
			KeyLookup:      "cookie:" + sessionCookie,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		},
	)
	r.Use(sessionMiddleware(engine, store))

	registerSession(r, engine, store)
	registerRequests(r, engine)
	registerCredentials(r, engine, protocol)
	r.Get("/verify", VerifyHandler(engine))
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	// Unmarshal full doc
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
