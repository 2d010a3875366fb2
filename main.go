package main

import (
	"datahub/config"
	"datahub/internal/handler"
	"datahub/internal/repo"
	"datahub/internal/storage"
	"datahub/router"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitMinio()
	handler.InitHandlers()

	router := router.InitRouter()

	router.Run(":8000")
}
