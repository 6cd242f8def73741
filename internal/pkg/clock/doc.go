// Package clock provides a tiny time abstraction.
//
// Usecases read time through Clocker so session expiry and alert timestamps
// can be driven by a Manual clock in tests.
package clock
