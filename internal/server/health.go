package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/sentinel/internal/utils"
)

var bootTime = time.Now()

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "ok",
		"boot_unix":      utils.ToUnix(bootTime),
		"boot_date":      utils.UnixToDate(utils.ToUnix(bootTime)),
		"uptime_seconds": int64(time.Since(bootTime).Seconds()),
	})
}
