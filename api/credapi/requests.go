package credapi

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
)

// registerRequests wires the credential request handlers
func registerRequests(r fiber.Router, engine *lifecycle.Engine) {
	g := r.Group("/requests")

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var input lifecycle.RequestInput
			if err := c.BodyParser(&input); err != nil {
				return invalidBody(c)
			}
			req, err := engine.SubmitRequest(c.UserContext(), input)
			if err != nil {
				return writeError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(req)
		},
	)
	g.Get(
		"/mine", func(c *fiber.Ctx) error {
			list, err := engine.MyRequests(c.UserContext())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(nonNil(list))
		},
	)
	g.Get(
		"/pending", func(c *fiber.Ctx) error {
			list, err := engine.PendingRequests(c.UserContext())
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(nonNil(list))
		},
	)

	type approveReq struct {
		Metadata json.RawMessage `json:"metadata"`
	}
	type approveRes struct {
		Request    *model.CredentialRequest `json:"request"`
		Credential *model.IssuedCredential  `json:"credential"`
	}
	g.Post(
		"/:requestID/approve", func(c *fiber.Ctx) error {
			var req approveReq
			if len(c.Body()) > 0 {
				if err := c.BodyParser(&req); err != nil {
					return invalidBody(c)
				}
			}
			metadata, err := model.ParseMetadata(req.Metadata)
			if err != nil {
				return writeError(c, err)
			}
			request, credential, err := engine.Approve(c.UserContext(), c.Params("requestID"), metadata)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(
				approveRes{
					Request:    request,
					Credential: credential,
				},
			)
		},
	)

	type rejectReq struct {
		Note string `json:"note"`
	}
	g.Post(
		"/:requestID/reject", func(c *fiber.Ctx) error {
			var req rejectReq
			if len(c.Body()) > 0 {
				if err := c.BodyParser(&req); err != nil {
					return invalidBody(c)
				}
			}
			request, err := engine.Reject(c.UserContext(), c.Params("requestID"), req.Note)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(request)
		},
	)
}
