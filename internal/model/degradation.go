package model

import "time"

// DegradationLevel is the process-wide state trading suggestion richness for
// latency and load safety. Written only by the quality controller; read by the
// orchestrator on every request.
type DegradationLevel int32

const (
	DegradationNormal DegradationLevel = iota
	DegradationReduced
	DegradationMinimal
)

func (l DegradationLevel) String() string {
	switch l {
	case DegradationNormal:
		return "normal"
	case DegradationReduced:
		return "reduced"
	case DegradationMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// TopK returns the result-size cap for this level. Reduced and Minimal shrink
// responses to a single suggestion.
func (l DegradationLevel) TopK(base int) int {
	if l == DegradationNormal {
		return base
	}
	if base < 1 {
		return base
	}
	return 1
}

// ConcurrencyCap bounds how many generation capabilities may be invoked in
// parallel. Minimal allows only the cheapest capability.
func (l DegradationLevel) ConcurrencyCap(base int) int {
	switch l {
	case DegradationReduced:
		if base > 2 {
			return 2
		}
		return base
	case DegradationMinimal:
		return 1
	default:
		return base
	}
}

// CacheTTL shrinks the cache lifetime under degradation so the pipeline serves
// fresher, smaller results instead of stale rich ones.
func (l DegradationLevel) CacheTTL(base time.Duration) time.Duration {
	switch l {
	case DegradationReduced:
		return base / 2
	case DegradationMinimal:
		return base / 4
	default:
		return base
	}
}
