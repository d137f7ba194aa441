// Package common contains shared constants and sentinel errors used across
// time capsule components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// MinPassphraseLength is the shortest capsule passphrase the client accepts.
const MinPassphraseLength = 6
