// Package errors provides structured, actionable error messages for kinetic.
//
// Each error has a unique code (e.g., "K001") that maps to a category, a
// short message, a longer explanation and a documentation URL. Runtime code
// attaches the code to log records; the CLI prints the formatted form.
//
// # Error Categories
//
//   - render: a component's render function failed
//   - runtime: loop, scheduler and mount failures
//   - protocol: wire protocol and transport errors
//   - config: configuration loading and validation
//   - cli: command line usage
//
// # Usage
//
//	err := errors.New(errors.CodeConfigInvalid).
//	    WithDetail("server.port must be between 1 and 65535").
//	    WithSuggestion("Set server.port in kinetic.yaml")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR K203: Invalid configuration value
//	//
//	//   server.port must be between 1 and 65535
//	//
//	//   Hint: Set server.port in kinetic.yaml
package errors
