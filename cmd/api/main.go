package main

import (
	"roombook/pkg/app"
	"roombook/pkg/config"
)

const ServiceName = "roombook-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting room booking API")
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg)
	serverApp.Run()
}
