package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/iamportal/internal/app"
)

const shutdownTimeout = 10 * time.Second

// @title           IAM Portal API
// @version         1.0
// @description     IAM Portal backs the self-service TOTP enrollment wizard and the administrator console.
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	portal := app.New()
	<-portal.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	portal.Stop(ctx)
}
