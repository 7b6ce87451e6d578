// Package common holds helpers shared by several services.
//
// It provides a thin git command wrapper with per-call timeouts and a helper
// to detect the current system actor (hostname/username) for audit logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
