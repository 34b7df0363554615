package flow

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cropflow/internal/logging"
	"cropflow/internal/nodules"
)

// Transition is the correspondence between two adjacent dates.
type Transition struct {
	CurrentDate string
	NextDate    string
	Current     []nodules.Record
	Next        []nodules.Record
	Mapping     IDMapping
}

// Displacement is the movement of one matched pair.
type Displacement struct {
	From int
	To   int
	DX   float64
	DY   float64
}

// Distance returns the length of the displacement.
func (d Displacement) Distance() float64 {
	return math.Hypot(d.DX, d.DY)
}

// Displacements returns one vector per mapping entry in current-index order.
func (t Transition) Displacements() []Displacement {
	out := make([]Displacement, 0, len(t.Mapping))
	for _, i := range t.Mapping.Keys() {
		j := t.Mapping[i]
		if i < 1 || i > len(t.Current) || j < 1 || j > len(t.Next) {
			continue
		}
		from, to := t.Current[i-1], t.Next[j-1]
		out = append(out, Displacement{From: i, To: j, DX: to.X - from.X, DY: to.Y - from.Y})
	}
	return out
}

// MeanDistance returns the average displacement length, 0 when nothing matched.
func (t Transition) MeanDistance() float64 {
	moves := t.Displacements()
	if len(moves) == 0 {
		return 0
	}
	var total float64
	for _, m := range moves {
		total += m.Distance()
	}
	return total / float64(len(moves))
}

// Pair is one adjacent (current, next) date pair.
type Pair struct {
	Current string
	Next    string
}

// Pairs returns the adjacent pairs of info's sorted dates.
func Pairs(info nodules.Info) []Pair {
	dates := info.Dates()
	if len(dates) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(dates)-1)
	for i := 0; i+1 < len(dates); i++ {
		pairs = append(pairs, Pair{Current: dates[i], Next: dates[i+1]})
	}
	return pairs
}

// MatchPair builds the transition for one pair.
func MatchPair(info nodules.Info, p Pair) Transition {
	current, next := info[p.Current], info[p.Next]
	return Transition{
		CurrentDate: p.Current,
		NextDate:    p.Next,
		Current:     current,
		Next:        next,
		Mapping:     Match(current, next),
	}
}

// Analyzer runs Match over every adjacent date pair.
type Analyzer struct {
	workers int
	logger  *slog.Logger
}

// NewAnalyzer returns an analyzer using up to workers goroutines. A
// non-positive count uses GOMAXPROCS.
func NewAnalyzer(workers int, logger *slog.Logger) *Analyzer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Analyzer{workers: workers, logger: logging.NewComponentLogger(logger, "flow")}
}

// Analyze returns one transition per adjacent pair in date order. Output
// does not depend on the worker count.
func (a *Analyzer) Analyze(ctx context.Context, info nodules.Info) ([]Transition, error) {
	pairs := Pairs(info)
	a.logger.Info("starting nodule analysis",
		logging.Int("dates", len(info)),
		logging.Int("pairs", len(pairs)),
		logging.Int("workers", a.workers))

	out := make([]Transition, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, p := range pairs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.logger.Debug("matching ids",
				logging.String(logging.FieldCurrentDate, p.Current),
				logging.String(logging.FieldNextDate, p.Next))
			t := MatchPair(info, p)
			a.logger.Debug("pair matched",
				logging.String(logging.FieldCurrentDate, p.Current),
				logging.String(logging.FieldNextDate, p.Next),
				logging.Int("matched", len(t.Mapping)),
				logging.Float64("mean_distance", t.MeanDistance()))
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.logger.Info("nodule analysis complete", logging.Int("transitions", len(out)))
	return out, nil
}
