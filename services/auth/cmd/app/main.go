package main

import (
	"authkit/pkg/config"
	app "authkit/services/auth/internal/app"

	_ "authkit/services/auth/docs" // Swagger docs
)

// @title           AuthKit API
// @version         1.0
// @description     Accounts, sessions, email verification and password reset with role-based access.

// @contact.name   API Support
// @contact.email  support@authkit.dev

// @license.name  MIT

// @host      localhost:8000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. The "token" cookie is accepted too.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
