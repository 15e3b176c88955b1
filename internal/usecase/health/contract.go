package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RecommenderChecker checks reasoning service availability.
type RecommenderChecker interface {
	HealthCheck(ctx context.Context) error
}
