package credapi

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
)

const (
	sessionCookie     = "credhouse_session"
	sessionProfileKey = "profile"
)

// sessionMiddleware puts the user signed in by this client into the
// request's user context so that handlers pass it to the engine explicitly.
// Clients without a session cookie act anonymously.
func sessionMiddleware(engine *lifecycle.Engine, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return writeError(c, errors.Wrap(err, "could not load session"))
		}
		if sess.Fresh() {
			return c.Next()
		}
		profile := sessionProfile(sess)
		if profile == nil {
			return c.Next()
		}
		if _, registered := engine.User(profile.ID); !registered {
			log.WithField("id", profile.ID).Warn("session user is no longer registered")
			return c.Next()
		}
		c.SetUserContext(lifecycle.WithActor(c.UserContext(), profile))
		return c.Next()
	}
}

func sessionProfile(sess *session.Session) *model.UserProfile {
	raw, ok := sess.Get(sessionProfileKey).(string)
	if !ok {
		return nil
	}
	var profile model.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil || profile.ID == "" {
		return nil
	}
	return &profile
}

func saveSessionProfile(c *fiber.Ctx, store *session.Store, profile *model.UserProfile, fresh bool) error {
	sess, err := store.Get(c)
	if err != nil {
		return errors.WithStack(err)
	}
	if fresh {
		if err = sess.Regenerate(); err != nil {
			return errors.WithStack(err)
		}
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return errors.WithStack(err)
	}
	sess.Set(sessionProfileKey, string(raw))
	return errors.WithStack(sess.Save())
}

// registerSession wires registration, sign in and profile handlers
func registerSession(r fiber.Router, engine *lifecycle.Engine, store *session.Store) {
	r.Post(
		"/users/:role", func(c *fiber.Ctx) error {
			role, err := model.ParseRole(c.Params("role"))
			if err != nil {
				return writeError(c, err)
			}
			var req model.Registration
			if err = c.BodyParser(&req); err != nil {
				return invalidBody(c)
			}
			profile, err := engine.Register(role, req)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(profile)
		},
	)

	g := r.Group("/session")
	g.Get(
		"/", func(c *fiber.Ctx) error {
			actor, ok := lifecycle.ActorFromContext(c.UserContext())
			if !ok {
				return writeError(c, lifecycle.ErrNoSession)
			}
			return c.JSON(actor)
		},
	)
	g.Post(
		"/", func(c *fiber.Ctx) error {
			var creds lifecycle.Credentials
			if err := c.BodyParser(&creds); err != nil {
				return invalidBody(c)
			}
			profile, err := engine.Authenticate(creds)
			if err != nil {
				return writeError(c, err)
			}
			if err = saveSessionProfile(c, store, profile, true); err != nil {
				return writeError(c, err)
			}
			return c.JSON(profile)
		},
	)
	g.Delete(
		"/", func(c *fiber.Ctx) error {
			sess, err := store.Get(c)
			if err != nil {
				return writeError(c, errors.WithStack(err))
			}
			if err = sess.Destroy(); err != nil {
				return writeError(c, errors.WithStack(err))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
	g.Patch(
		"/profile", func(c *fiber.Ctx) error {
			var update model.ProfileUpdate
			if err := c.BodyParser(&update); err != nil {
				return invalidBody(c)
			}
			profile, err := engine.MergeProfile(c.UserContext(), update)
			if err != nil {
				return writeError(c, err)
			}
			if err = saveSessionProfile(c, store, profile, false); err != nil {
				return writeError(c, err)
			}
			return c.JSON(profile)
		},
	)

	r.Get(
		"/issuers", func(c *fiber.Ctx) error {
			return c.JSON(nonNil(engine.Issuers()))
		},
	)
	r.Get(
		"/institutions", func(c *fiber.Ctx) error {
			return c.JSON(nonNil(engine.Institutions()))
		},
	)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
