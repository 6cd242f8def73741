// Package jwt verifies the portal's bearer tokens and carries the
// authenticated claims through request contexts.
//
// Tokens are HS512 signed. The raw token string is kept next to the claims
// so outbound calls to the identity server can forward it unchanged.
package jwt
