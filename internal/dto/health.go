package dto

// HealthResponse represents the response structure for health checks
type HealthResponse struct {
	Status  string `json:"status"`
	Details any    `json:"details,omitempty"`
}

// TestHealthResponse is returned by the unauthenticated smoke-test endpoint
type TestHealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
