//go:build !release
// +build !release

package main

import (
	"github.com/gin-gonic/gin"
	"stillbatch/core/config"
)

// initializeGin sets up Gin in debug mode for development builds
func initializeGin(_ *config.Config) *gin.Engine {
	// Gin will be in debug mode by default
	return gin.New()
}
