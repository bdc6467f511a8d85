// Package mocks provides mock implementations for testing the publisher.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core ports. The mocks are generated using go:generate directives and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	orch := mocks.NewMockDeploymentOrchestrator(ctrl)
//	orch.EXPECT().Deploy(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for DeploymentOrchestrator interface from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=orchestrator_mock.go github.com/botstack/publisher/internal/core DeploymentOrchestrator

// Generate mock for TokenVerifier interface from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_verifier_mock.go github.com/botstack/publisher/internal/core TokenVerifier
