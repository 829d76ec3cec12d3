// Package mocks provides gomock-generated mocks for the session client ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockAuthClient(ctrl)
//	client.EXPECT().Login(gomock.Any(), gomock.Any()).Return(ports.LoginResult{Token: "t"}, nil)
package mocks

// Generate mock for AuthClient interface from internal/ports package.
// This creates MockAuthClient with methods for all AuthClient interface methods:
// Register, Login, SendResetOTP, ResetPassword, SendVerifyOTP, VerifyOTP, VerifyEmail, GetProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_client_mock.go github.com/target/authify-client/internal/ports AuthClient

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods for all SessionStore interface methods:
// Load, Save, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/authify-client/internal/ports SessionStore
