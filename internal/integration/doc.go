// Package integration exercises the resolver, checker, packager and cleaner together
// against real git repositories and stand-in build tools.
package integration
