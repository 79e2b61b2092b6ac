package credapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/verification"
)

// registerCredentials wires minting, listing and sharing of credentials
func registerCredentials(r fiber.Router, engine *lifecycle.Engine, protocol verification.Protocol) {
	g := r.Group("/credentials")

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var input lifecycle.MintInput
			if err := c.BodyParser(&input); err != nil {
				return invalidBody(c)
			}
			credential, err := engine.Mint(c.UserContext(), input)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(credential)
		},
	)
	g.Get(
		"/mine", func(c *fiber.Ctx) error {
			list, err := engine.MyCredentials(c.UserContext())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(nonNil(list))
		},
	)
	g.Get(
		"/issued", func(c *fiber.Ctx) error {
			list, err := engine.IssuedByMe(c.UserContext())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(nonNil(list))
		},
	)
	g.Get(
		"/:credentialID", func(c *fiber.Ctx) error {
			credential, err := engine.Credential(c.UserContext(), c.Params("credentialID"))
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(credential)
		},
	)

	// The wallet defaults to the holder of the credential. An explicit
	// address query parameter overrides it, e.g. to link a second wallet.
	type shareQuery struct {
		Address string `query:"address"`
		BaseURL string `query:"base_url"`
		Size    int    `query:"size"`
	}
	g.Get(
		"/:credentialID/share", func(c *fiber.Ctx) error {
			var q shareQuery
			if err := c.QueryParser(&q); err != nil {
				return invalidBody(c)
			}
			credential, err := engine.Credential(c.UserContext(), c.Params("credentialID"))
			if err != nil {
				return writeError(c, err)
			}
			wallet := q.Address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			share, err := protocol.CreateShareableURL(*credential, wallet)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(share)
		},
	)
	g.Get(
		"/:credentialID/qr.json", func(c *fiber.Ctx) error {
			var q shareQuery
			if err := c.QueryParser(&q); err != nil {
				return invalidBody(c)
			}
			credential, err := engine.Credential(c.UserContext(), c.Params("credentialID"))
			if err != nil {
				return writeError(c, err)
			}
			wallet := q.Address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			data, err := protocol.GenerateQRVerificationData(*credential, wallet, q.BaseURL)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(data)
		},
	)
	g.Get(
		"/:credentialID/qr.png", func(c *fiber.Ctx) error {
			var q shareQuery
			if err := c.QueryParser(&q); err != nil {
				return invalidBody(c)
			}
			credential, err := engine.Credential(c.UserContext(), c.Params("credentialID"))
			if err != nil {
				return writeError(c, err)
			}
			wallet := q.Address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			u, err := protocol.GenerateVerificationURL(wallet, credential.ID, q.BaseURL)
			if err != nil {
				return writeError(c, err)
			}
			png, err := verification.QRCodePNG(u, q.Size)
			if err != nil {
				return writeError(c, err)
			}
			c.Set(fiber.HeaderContentType, "image/png")
			return c.Send(png)
		},
	)
}
