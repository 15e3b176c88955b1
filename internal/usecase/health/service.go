package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; searches still work.
	Degraded Status = "degraded"
	// Unhealthy indicates searches cannot be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	recommender RecommenderChecker
	db          DBPinger
}

// New creates a Service. db is nil when budget persistence is disabled.
func New(recommender RecommenderChecker, db DBPinger) *Service {
	return &Service{recommender: recommender, db: db}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.db != nil {
		checks["database"] = result(s.db.Ping(ctx))
		if checks["database"] == CheckError {
			status = Degraded
		}
	}

	if s.recommender != nil {
		checks["recommender"] = result(s.recommender.HealthCheck(ctx))
		if checks["recommender"] == CheckError {
			status = Unhealthy
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
