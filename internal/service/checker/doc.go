// Package checker runs the project's lint, type-check and unit test steps.
//
// The generated version file is brought up to date first, since the package under test imports it.
package checker
