package handlers

import "net/http"

// Healthcheck обрабатывает GET /healthz
func Healthcheck(role, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := jsonResponse{
			"status": "available",
			"system_info": jsonResponse{
				"role":    role,
				"version": version,
			},
		}
		if err := writeJSON(w, http.StatusOK, data, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	}
}
