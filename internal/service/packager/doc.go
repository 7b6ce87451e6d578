// Package packager assembles the RPM source tarball and drives the package build.
//
// The tracked tree at HEAD is streamed from git archive into a gzip tarball
// rooted at the package name, the untracked generated version file is appended
// inside that root, and rpmbuild receives major/minor version defines derived
// from the resolved version. The tarball is removed on every exit path.
package packager
