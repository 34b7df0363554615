// Package preflight provides readiness checks for the filesystem locations
// cropflow writes to.
//
// The CLI "cropflow check" command prints every result, and the detect
// command runs CheckRegistry before taking the registry lock so permission
// problems surface before any work is done.
package preflight
