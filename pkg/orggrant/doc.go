// Package orggrant resolves organization-sponsored access.
//
// An organization grant is not a subscription row: it is a sponsorship flag
// with an expiry on the account. The resolver synthesizes an in-memory
// subscription-shaped value from it (active, yearly, period ending at the
// expiry) so every downstream consumer treats sponsored and personal access
// uniformly. A grant contributes entitlement only while now is strictly
// before its expiry.
package orggrant
