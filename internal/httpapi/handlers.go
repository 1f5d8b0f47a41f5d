package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/store"
)

// decodeBody parses the request body into T, surfacing malformed JSON as a
// VALIDATION error so writeError renders it as 400 rather than 500.
func decodeBody[T any](c *fiber.Ctx) (T, error) {
	var v T
	if err := c.BodyParser(&v); err != nil {
		return v, errs.New(errs.Validation, "malformed request body")
	}
	return v, nil
}

// registerEntityRoutes mounts one route group per DataStore entity. Every
// handler follows the same shape: decode (if a body is expected), call the
// DataStore, map nil-and-no-error to 404, map an error through writeError.
func registerEntityRoutes(s *Server, r fiber.Router) {
	r.Get("/players", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		players, err := ds.GetPlayers(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(players)
	}))
	r.Post("/players", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		p, err := decodeBody[domain.Player](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.CreatePlayer(c.Context(), p)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Patch("/players/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		patch, err := decodeBody[domain.Player](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdatePlayer(c.Context(), c.Params("id"), patch)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/players/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeletePlayer(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/teams", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		teams, err := ds.GetTeams(c.Context(), c.QueryBool("includeArchived", false))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(teams)
	}))
	r.Get("/teams/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		team, err := ds.GetTeamByID(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		if team == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(team)
	}))
	r.Post("/teams", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		t, err := decodeBody[domain.Team](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.CreateTeam(c.Context(), t)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Patch("/teams/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		patch, err := decodeBody[domain.Team](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdateTeam(c.Context(), c.Params("id"), patch)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/teams/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeleteTeam(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/teams/:id/roster", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		roster, err := ds.GetTeamRoster(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(roster)
	}))
	r.Put("/teams/:id/roster", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		roster, err := decodeBody[[]domain.TeamPlayer](c)
		if err != nil {
			return writeError(c, err)
		}
		if err := ds.SetTeamRoster(c.Context(), c.Params("id"), roster); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/seasons", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		seasons, err := ds.GetSeasons(c.Context(), c.QueryBool("includeArchived", false))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(seasons)
	}))
	r.Post("/seasons", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		sn, err := decodeBody[domain.Season](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.CreateSeason(c.Context(), sn)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Put("/seasons/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		full, err := decodeBody[domain.Season](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdateSeason(c.Context(), c.Params("id"), full)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/seasons/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeleteSeason(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/tournaments", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		tournaments, err := ds.GetTournaments(c.Context(), c.QueryBool("includeArchived", false))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(tournaments)
	}))
	r.Post("/tournaments", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		t, err := decodeBody[domain.Tournament](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.CreateTournament(c.Context(), t)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Put("/tournaments/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		full, err := decodeBody[domain.Tournament](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdateTournament(c.Context(), c.Params("id"), full)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/tournaments/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeleteTournament(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/personnel", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		personnel, err := ds.GetAllPersonnel(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(personnel)
	}))
	r.Post("/personnel", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		p, err := decodeBody[domain.Personnel](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.AddPersonnelMember(c.Context(), p)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Patch("/personnel/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		patch, err := decodeBody[domain.Personnel](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdatePersonnelMember(c.Context(), c.Params("id"), patch)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/personnel/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.RemovePersonnelMember(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/games", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		games, err := ds.GetGames(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(games)
	}))
	r.Get("/games/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		g, err := ds.GetGameByID(c.Context(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		if g == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(g)
	}))
	r.Post("/games", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		partial, err := decodeBody[domain.Game](c)
		if err != nil {
			return writeError(c, err)
		}
		created, err := ds.CreateGame(c.Context(), partial)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Put("/games/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		full, err := decodeBody[domain.Game](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.SaveGame(c.Context(), c.Params("id"), full)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/games/:id", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeleteGame(c.Context(), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Post("/games/:id/events", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		event, err := decodeBody[domain.GameEvent](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.AddGameEvent(c.Context(), c.Params("id"), event)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Put("/games/:id/events/:index", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return writeError(c, errs.New(errs.Validation, "index must be an integer"))
		}
		event, err := decodeBody[domain.GameEvent](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdateGameEvent(c.Context(), c.Params("id"), index, event)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/games/:id/events/:index", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return writeError(c, errs.New(errs.Validation, "index must be an integer"))
		}
		updated, err := ds.RemoveGameEvent(c.Context(), c.Params("id"), index)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))

	r.Get("/players/:playerId/adjustments", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		adjustments, err := ds.GetPlayerAdjustments(c.Context(), c.Params("playerId"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(adjustments)
	}))
	r.Post("/players/:playerId/adjustments", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		a, err := decodeBody[domain.PlayerAdjustment](c)
		if err != nil {
			return writeError(c, err)
		}
		a.PlayerID = c.Params("playerId")
		created, err := ds.AddPlayerAdjustment(c.Context(), a)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}))
	r.Patch("/players/:playerId/adjustments/:adjId", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		patch, err := decodeBody[domain.PlayerAdjustment](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdatePlayerAdjustment(c.Context(), c.Params("playerId"), c.Params("adjId"), patch)
		if err != nil {
			return writeError(c, err)
		}
		if updated == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(updated)
	}))
	r.Delete("/players/:playerId/adjustments/:adjId", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeletePlayerAdjustment(c.Context(), c.Params("playerId"), c.Params("adjId")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/warmup-plan", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		plan, err := ds.GetWarmupPlan(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		if plan == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.JSON(plan)
	}))
	r.Put("/warmup-plan", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		plan, err := decodeBody[domain.WarmupPlan](c)
		if err != nil {
			return writeError(c, err)
		}
		saved, err := ds.SaveWarmupPlan(c.Context(), plan)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(saved)
	}))
	r.Delete("/warmup-plan", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		if err := ds.DeleteWarmupPlan(c.Context()); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))

	r.Get("/settings", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		settings, err := ds.GetSettings(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(settings)
	}))
	r.Put("/settings", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		settings, err := decodeBody[domain.AppSettings](c)
		if err != nil {
			return writeError(c, err)
		}
		if err := ds.SaveSettings(c.Context(), settings); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}))
	r.Patch("/settings", s.withStore(func(c *fiber.Ctx, ds store.DataStore) error {
		patch, err := decodeBody[map[string]any](c)
		if err != nil {
			return writeError(c, err)
		}
		updated, err := ds.UpdateSettings(c.Context(), patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(updated)
	}))
}
