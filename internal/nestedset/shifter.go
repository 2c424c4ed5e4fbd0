package nestedset

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqltree/pkg/core"
)

// ShiftResult reports how many rows had each boundary renumbered.
type ShiftResult struct {
	Rights int64
	Lefts  int64
}

// Shifter renumbers boundaries to open or close gaps in the numbering
// space. It must run on a repository bound to the enclosing transaction;
// a shift on its own leaves the table inconsistent until the matching
// insert or delete happens.
type Shifter struct {
	logger *slog.Logger
}

// NewShifter creates a shifter. A nil logger discards output.
func NewShifter(logger *slog.Logger) *Shifter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Shifter{logger: logger}
}

// ShiftForInsertion opens a gap of two at boundary v so that a new leaf can
// occupy [v, v+1]: right boundaries >= v and left boundaries > v move by 2.
// Passing a parent's right boundary makes the new node its last child.
func (s *Shifter) ShiftForInsertion(ctx context.Context, repo *Repository, v int64) (ShiftResult, error) {
	return s.shift(ctx, repo, "insert", v, v+1, 2)
}

// OpenGapAfter opens a gap of two directly after boundary b so that a new
// leaf can occupy [b+1, b+2]. Used for sibling insertion, where b is the
// sibling's right boundary.
func (s *Shifter) OpenGapAfter(ctx context.Context, repo *Repository, b int64) (ShiftResult, error) {
	return s.shift(ctx, repo, "open", b+1, b+1, 2)
}

// CloseGap closes the hole left by a removed subtree, moving every boundary
// beyond the removed interval down by its width.
func (s *Shifter) CloseGap(ctx context.Context, repo *Repository, removed core.Node) (ShiftResult, error) {
	width := removed.Right - removed.Left + 1
	return s.shift(ctx, repo, "close", removed.Right+1, removed.Right+1, -width)
}

func (s *Shifter) shift(ctx context.Context, repo *Repository, kind string, rightFrom, leftFrom, delta int64) (ShiftResult, error) {
	var res ShiftResult
	var err error

	if res.Rights, err = repo.ShiftRight(ctx, rightFrom, delta); err != nil {
		return res, err
	}
	if res.Lefts, err = repo.ShiftLeft(ctx, leftFrom, delta); err != nil {
		return res, err
	}

	rowsShifted.WithLabelValues("rgt").Add(float64(res.Rights))
	rowsShifted.WithLabelValues("lft").Add(float64(res.Lefts))

	s.logger.Debug("boundaries shifted",
		slog.String("kind", kind),
		slog.Int64("from", rightFrom),
		slog.Int64("delta", delta),
		slog.Int64("rights", res.Rights),
		slog.Int64("lefts", res.Lefts))

	return res, nil
}
