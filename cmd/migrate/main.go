package main

import (
	config "mobile-banking-core/configs"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/pkg/logger"
)

func main() {
	env, err := config.GetEnv()
	if err != nil {
		logger.Error.Println("Error getting environment", err)
		panic(err)
	}
	if err := logger.Setup(false); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Setup(&database.Config{
		Host:     env.DBHost,
		Port:     env.DBPort,
		User:     env.DBUser,
		Password: env.DBPass,
		Database: env.DBName,
		SSLMode:  env.DBSSLMode,
		Driver:   database.DriverEnum(env.DBDriver),
	})
	if err != nil {
		logger.Error.Println("Error setting up Database", err)
		return
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.RunMigrations(); err != nil {
		logger.Error.Println("Error running migrations", err)
		return
	}

	logger.Info.Println("Migrations completed successfully")
}
