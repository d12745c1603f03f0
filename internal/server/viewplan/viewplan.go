// Package viewplan builds the per-user view sequences stored in the view
// assignment table.
//
// Images 1..H are dealt round-robin over the first cohort and shuffled. Every
// image i is paired with its transit companion H+i, taken from the slot delay
// positions later, so a user sees the two versions of a light curve some
// distance apart. Pairs are randomly swapped and interleaved, and view_order
// is each user's running count. Further cohorts repeat the first one with
// user ids offset by a multiple of the cohort size.
package viewplan

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

var ErrInvalidOptions = errors.New("invalid view plan options")

type Options struct {
	// Users is the first cohort, in dealing order.
	Users []int64
	// Images is the number of distinct light curves H. File ids H+1..2H are
	// their transit companions.
	Images int
	Delay  int
	Seed   uint64
	// Cohorts is the number of copies of the first cohort, at least 1.
	Cohorts int
	// CohortOffset is added to user ids once per cohort.
	CohortOffset int64
}

func (o Options) validate() error {
	switch {
	case len(o.Users) == 0:
		return fmt.Errorf("%w: no users", ErrInvalidOptions)
	case o.Images < 1:
		return fmt.Errorf("%w: images must be positive", ErrInvalidOptions)
	case o.Delay < 0:
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidOptions)
	case o.Cohorts < 1:
		return fmt.Errorf("%w: cohorts must be positive", ErrInvalidOptions)
	case o.Cohorts > 1 && o.CohortOffset < int64(len(o.Users)):
		return fmt.Errorf("%w: cohort offset %d would overlap a cohort of %d users",
			ErrInvalidOptions, o.CohortOffset, len(o.Users))
	}
	return nil
}

type slot struct {
	user int64
	file int
}

// Generate returns the full plan. The same options always yield the same plan.
func Generate(opts Options) ([]models.UserView, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	n := opts.Images
	plain := make([]slot, n)
	for k := range plain {
		plain[k] = slot{user: opts.Users[k%len(opts.Users)], file: k + 1}
	}
	rng.Shuffle(n, func(i, j int) { plain[i], plain[j] = plain[j], plain[i] })

	transit := make([]slot, n)
	for j := range transit {
		src := plain[(j+opts.Delay)%n]
		transit[j] = slot{user: src.user, file: src.file + n}
	}

	for j := range plain {
		if rng.Float64() < 0.5 {
			plain[j], transit[j] = transit[j], plain[j]
		}
	}

	order := make(map[int64]int, len(opts.Users))
	cohort := make([]models.UserView, 0, 2*n)
	for j := range plain {
		for _, s := range [2]slot{plain[j], transit[j]} {
			order[s.user]++
			cohort = append(cohort, models.UserView{UserID: s.user, ViewOrder: order[s.user], FileID: s.file})
		}
	}

	plan := make([]models.UserView, 0, len(cohort)*opts.Cohorts)
	for c := range opts.Cohorts {
		offset := int64(c) * opts.CohortOffset
		for _, v := range cohort {
			v.UserID += offset
			plan = append(plan, v)
		}
	}
	return plan, nil
}
