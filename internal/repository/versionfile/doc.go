// Package versionfile persists the resolved long version into the generated
// source file consumed by the packaged application.
//
// Writes are atomic and skipped when the rendered content is already on disk,
// so regenerating with unchanged history leaves the file byte-identical.
package versionfile
