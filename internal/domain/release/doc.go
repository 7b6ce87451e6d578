// Package release contains the version model shared by the resolver and the packager.
//
// A Version is either Described (derived from a reachable git tag) or a
// Fallback synthesized from the short version. Both forms keep the short
// version as the prefix of the long one, which is what the package build relies
// on to compute its major and minor components.
package release
