package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse"
	"github.com/credhouse/credhouse/cmd/credhouse/config"
	"github.com/credhouse/credhouse/internal/logger"
	"github.com/credhouse/credhouse/internal/version"
	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/verification"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	if err := logger.Init(c.Logging); err != nil {
		log.WithError(err).Fatal("could not init logger")
	}
	log.WithField("version", version.VERSION).Info("Loaded Config")
	c.LogDebug()

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}

	engine := lifecycle.NewEngine(backs, c.Issuance.MintDelay.Duration())
	ch, err := credhouse.NewCredHouse(c.Server, engine, verification.NewProtocol(c.Server.PublicURL))
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Initialized Server")

	ch.Start()
}
