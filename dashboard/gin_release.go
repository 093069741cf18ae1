//go:build release
// +build release

package main

import (
	"github.com/gin-gonic/gin"
	"stillbatch/core/config"
)

// initializeGin sets up Gin in release mode for production builds
func initializeGin(_ *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// The dashboard binds to a local address and does not sit behind a
	// reverse proxy, so don't trust any
	router.SetTrustedProxies(nil)

	return router
}
