package embedding

import (
	"context"

	"jobrec/internal/domain"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type unwrapper interface {
	Unwrap() domain.Encoder
}

// HealthCheck probes the backend behind enc, looking through cache decorators.
// Encoders with no remote backend are always healthy.
func HealthCheck(ctx context.Context, enc domain.Encoder) error {
	for enc != nil {
		if hc, ok := enc.(healthChecker); ok {
			return hc.HealthCheck(ctx)
		}
		u, ok := enc.(unwrapper)
		if !ok {
			return nil
		}
		enc = u.Unwrap()
	}
	return nil
}
