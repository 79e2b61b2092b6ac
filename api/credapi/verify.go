package credapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/verification"
)

// VerifyHandler answers the public verification URLs. With a credentialId it
// verifies that single credential, otherwise it returns the profile of the
// address.
func VerifyHandler(engine *lifecycle.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params verification.URLParams
		if err := c.QueryParser(&params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody(ErrorInvalidRequest, "invalid query"))
		}
		if params.IsProfile() {
			profile, err := engine.Profile(c.UserContext(), params.Address)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(profile)
		}
		result, err := engine.Verify(c.UserContext(), params.Address, params.CredentialID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(result)
	}
}
