// Package nodules reads the per-date nodule measurements that feed temporal
// matching.
//
// A Nodule Info document maps a date key to the ordered list of nodule records
// observed on that date. Order is detection order: a record's identity within
// its date is its 1-based position in the list. The package also converts
// RootPainter CSV exports into one Nodule Info file per crop.
package nodules
