// Package otp reads TOTP provisioning URIs handed out by the identity
// server and renders them for people to scan.
//
// Rendering comes in two flavors: a PNG for browsers and a block-character
// QR code for terminals. Code generation is kept for tests and local
// fixtures that need a code the server would accept.
package otp
