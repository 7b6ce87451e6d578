// Package resolver derives the long version from git history and keeps the
// generated version file current.
//
// Resolution never fails: when history cannot describe HEAD the version falls
// back to "<short>-0-unknown-g<hash>", with an empty hash if even that lookup
// fails. The generated file is only rewritten when the git index changed since
// the last write or when the caller forces it.
package resolver
