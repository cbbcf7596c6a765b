package models

// HealthResponse represents the response structure for health check endpoints
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service,omitempty"`
}

// MessageResponse carries a single human-readable message
type MessageResponse struct {
	Message string `json:"message"`
}
