package main

import (
	"fmt"
	"time"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/routers"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/tasks"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

func main() {
	// Set timezone
	conf := config.ServerConfig()
	loc, _ := time.LoadLocation(conf.Timezone)
	time.Local = loc

	// Connect to the database
	DSN := config.DBConfig()
	if err := storage.DBConnection(DSN); err != nil {
		logger.Fatalf("database DBConnection: %s", err)
	}

	// Initialize Redis when a status cache is configured
	if config.BridgeConfig().StatusCacheEnabled {
		if err := storage.InitializeRedis(); err != nil {
			logger.Fatalf("Redis initialization: %v", err)
		}
	}

	// Start cron jobs
	tasks.StartCronJobs()

	// Run the server
	router := routers.Routes()

	appServer := fmt.Sprintf("%s:%s", conf.Host, conf.Port)
	logger.Infof("Server Running at :%v", appServer)

	logger.Fatalf("%v", router.Run(appServer))
}
