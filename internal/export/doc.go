// Package export writes matcher and detection output as JSON files.
//
// Values are rounded only here: position, diameter and perimeter to two
// decimals and eccentricity to four. The in-memory records used for matching
// keep full precision.
package export
