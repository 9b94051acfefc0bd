package service

import "context"

// Verifier abstracts the identity-verification gate of the confirmation
// flow. Implementations answer with a boolean outcome; a real credential or
// biometric check can replace the stub without touching the flow itself.
type Verifier interface {
	Verify(ctx context.Context, studentID string) (bool, error)
}

// StaticVerifier approves or declines every verification uniformly. It
// stands in until a real credential check exists.
type StaticVerifier struct {
	Approve bool
}

// Verify implements Verifier.
func (v StaticVerifier) Verify(_ context.Context, _ string) (bool, error) {
	return v.Approve, nil
}
