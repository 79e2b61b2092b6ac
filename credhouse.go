// Package credhouse assembles the credhouse http server: the public
// verification page and the JSON API.
package credhouse

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/api/credapi"
	applogger "github.com/credhouse/credhouse/internal/logger"
	"github.com/credhouse/credhouse/internal/version"
	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/verification"
)

// APIPath is the prefix of all JSON API routes
const APIPath = "/api/v1"

// CredHouse is the credhouse http server
type CredHouse struct {
	server     *fiber.App
	serverConf ServerConf
	Engine     *lifecycle.Engine
	Protocol   verification.Protocol
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// handleError renders errors that escape the handlers, e.g. unknown routes,
// in the same shape as the API errors
func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	description := "internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		description = e.Message
	} else {
		log.WithError(err).WithField("path", ctx.Path()).Error("unhandled error")
	}
	errorCode := credapi.ErrorServerError
	switch {
	case code == fiber.StatusNotFound:
		errorCode = credapi.ErrorNotFound
	case code < fiber.StatusInternalServerError:
		errorCode = credapi.ErrorInvalidRequest
	}
	return ctx.Status(code).JSON(
		credapi.Error{
			Error:            errorCode,
			ErrorDescription: description,
		},
	)
}

// NewCredHouse creates a new CredHouse serving the verification page at
// /verify and the API below APIPath
func NewCredHouse(
	serverConf ServerConf, engine *lifecycle.Engine, protocol verification.Protocol,
) (*CredHouse, error) {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	FiberServerConfig.ServerHeader = version.UserAgent()
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(
		logger.New(
			logger.Config{
				Output: applogger.AccessWriter(),
			},
		),
	)
	server.Use(requestid.New())

	if protocol.Origin == "" {
		protocol.Origin = serverConf.PublicURL
	}
	ch := &CredHouse{
		server:     server,
		serverConf: serverConf,
		Engine:     engine,
		Protocol:   protocol,
	}

	server.Get(verification.VerifyPath, credapi.VerifyHandler(engine))
	apiURL := ""
	if protocol.Origin != "" {
		apiURL = strings.TrimRight(protocol.Origin, "/") + APIPath
	}
	if err := credapi.Register(server.Group(APIPath), apiURL, engine, protocol); err != nil {
		return nil, err
	}
	return ch, nil
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (ch CredHouse) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(ch.server)
}

// Test sends req through the fiber app, see fiber.App.Test
func (ch CredHouse) Test(req *http.Request, msTimeout ...int) (*http.Response, error) {
	return ch.server.Test(req, msTimeout...)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (ch CredHouse) Listen(addr string) error {
	return ch.server.Listen(addr)
}

// Shutdown gracefully stops the server
func (ch CredHouse) Shutdown() error {
	return ch.server.Shutdown()
}

// Start starts the server as configured and blocks until it fails
func (ch CredHouse) Start() {
	conf := ch.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(ch.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(ch.server.ListenTLS(fmt.Sprintf("%s:443", conf.IPListen), conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
