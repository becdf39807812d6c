package api

// ReadinessResponse is the body of /ready. Storage is required, the cache is
// optional: a cache outage leaves the service degraded but ready.
type ReadinessResponse struct {
	Status  string `json:"status"`  // ready, degraded, unavailable
	Storage string `json:"storage"` // ok, down
	Cache   string `json:"cache"`   // ok, down, off
}
