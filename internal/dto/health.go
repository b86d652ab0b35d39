package dto

// HealthResponse reports process or dependency health. Details maps a
// dependency name to "ok" or its error.
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}
