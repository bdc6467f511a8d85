package service

// ValidationError marks a publish request rejected during the synchronous
// phase (missing credential, missing provisioning, staging failure). It is
// recorded as a 500 outcome, never raised to callers.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// DeploymentError marks an orchestrator failure surfaced asynchronously; the
// job transitions to a 500 outcome carrying this message.
type DeploymentError struct {
	Message string
}

func (e *DeploymentError) Error() string {
	return e.Message
}
