package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/ecotrackhq/ecotrack-api/api/handlers"
	"github.com/ecotrackhq/ecotrack-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	port := a.Config.Port
	if port == "" {
		port = "8080"
	}
	zap.S().Infow("ecotrack-api is up and running",
		"port", port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
