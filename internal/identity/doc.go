// Package identity resolves detected candidates to persistent object ids.
//
// Assign compares one candidate with the registry entries in stored order and
// reuses the id of the first entry lying within the candidate's half-diagonal.
// When nothing qualifies it mints the next id after the running maximum. The
// first qualifying entry wins even when a later entry is closer.
//
// Pass applies Assign to every candidate of one detection event. All
// candidates are matched against the registry as it was loaded; ids minted
// earlier in the same pass are appended to the output snapshot but are not
// match targets for later candidates.
package identity
