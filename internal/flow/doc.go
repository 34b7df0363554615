// Package flow computes nearest-neighbour correspondence between nodules
// observed on consecutive dates.
//
// Match maps each record of the current date, by its 1-based position, to the
// 1-based position of the closest record of the next date. Ties keep the
// earliest candidate. The matched position is recovered by looking the chosen
// record up by value, so records with identical attributes on the next date
// all resolve to the first of them.
//
// Analyze runs Match over every adjacent pair of sorted dates. Pairs do not
// depend on each other and are processed concurrently.
package flow
