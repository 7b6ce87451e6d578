// Package cleaner removes build outputs.
package cleaner
