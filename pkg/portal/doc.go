// Package portal defines the canonical content schema of the news portal and
// the Provider contract that every content backend implements.
//
// Three backends ship with the module: a self-contained reference provider
// over a pluggable key/value Store (subpackage reference), a WordPress REST
// provider (subpackage wordpress) and a Strapi REST provider (subpackage
// strapi). Callers depend only on Provider; the registry subpackage decides
// which backend is active.
//
// # Not-found semantics
//
// Get* lookups return (nil, nil) when the identifier or slug is absent.
// Update* returns an error wrapping ErrNotFound. Delete* on a missing id is a
// no-op for the reference provider and ErrNotFound for the REST providers.
// Credential failures wrap ErrUnauthorized so callers can prompt for
// reconfiguration instead of treating them as transient.
package portal
