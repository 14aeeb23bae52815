// Package mmfile maps heap files read-only for offline inspection.
package mmfile
