package api

// ErrorResponse is returned on transport errors (bad body, auth failures).
// JSON-RPC errors travel inside a normal 200 response instead.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	RequestsTotal uint64 `json:"requests_total"`
}
