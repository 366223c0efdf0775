package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// DialogueMetrics is returned by GET /v1/metrics/dialogue.
type DialogueMetrics struct {
	TotalTurns           int64   `json:"totalTurns"`
	SlotAcks             int64   `json:"slotAcks"`
	Recommendations      int64   `json:"recommendations"`
	CannedReplies        int64   `json:"cannedReplies"`
	Fallbacks            int64   `json:"fallbacks"`
	PredictorUnavailable int64   `json:"predictorUnavailable"`
	RecommendationRate   float64 `json:"recommendationRate"`
	FallbackRate         float64 `json:"fallbackRate"`
	Period               string  `json:"period"`
}
