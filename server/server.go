// Package server exposes a read-only HTTP API over a crawled graph.
package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	vk "github.com/anatolykoptev/go-vk"
	"github.com/anatolykoptev/go-vk/graphstore"
)

// New builds the fiber app. Routes:
//
//	GET /healthz
//	GET /users/:id          GET /users/:id/edges
//	GET /groups/:id         GET /groups/:id/edges
func New(r graphstore.Reader) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "vkcrawl"})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	for prefix, label := range map[string]graphstore.Label{
		"/users":  graphstore.LabelUser,
		"/groups": graphstore.LabelGroup,
	} {
		app.Get(prefix+"/:id", nodeHandler(r, label))
		app.Get(prefix+"/:id/edges", edgesHandler(r, label))
	}
	return app
}

func nodeHandler(r graphstore.Reader, label graphstore.Label) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := vk.ParseNodeID(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
		}
		n, err := r.Node(c.Context(), label, id)
		if err != nil {
			return storeFailure(c, err)
		}
		return c.JSON(n)
	}
}

func edgesHandler(r graphstore.Reader, label graphstore.Label) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := vk.ParseNodeID(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid id"})
		}
		edges, err := r.Edges(c.Context(), label, id)
		if err != nil {
			return storeFailure(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "label": label, "edges": edges})
	}
}

func storeFailure(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, graphstore.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, graphstore.ErrUnavailable):
		return c.Status(503).JSON(fiber.Map{"error": "store unavailable"})
	}
	slog.Error("read api", slog.String("path", c.Path()), slog.Any("error", err))
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
