// Command server runs the MIP solver microservice: the remote solving
// strategy the territory optimizer's dispatcher falls back or races
// against for models too large to solve comfortably in-process.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aristath/sentinel/services/mip-solver/internal/handlers"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9100"
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	solveHandler := handlers.NewSolveHandler(90 * time.Second)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/solve", solveHandler.Solve)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("MIP solver service listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
