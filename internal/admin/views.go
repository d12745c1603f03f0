package admin

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/server/services"
	"github.com/dmitrijs2005/transitwatch/internal/server/viewplan"
	"github.com/spf13/cobra"
)

type GenerateViewsOptions struct {
	// Images defaults to MaxFileID/2 and must match it when set.
	Images  int
	Delay   int
	Seed    uint64
	Cohorts int
	// Replace clears existing assignments first.
	Replace bool
	// Force stores a plan even when some users' view counts differ from
	// the batch size the server will enforce for them.
	Force bool
}

func newViewsCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage view assignments",
	}

	var opts GenerateViewsOptions
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Build every user's view sequence",
		Long: `Build the per-user view sequences.

The first nr_users accounts form the first cohort. Each further cohort gets
the same sequences with user ids shifted by nr_users.

Example:
  transitwatch-admin views generate --delay 5 --seed 42 --cohorts 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := GenerateViews(cmd.Context(), rt, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "created %d view assignments\n", n)
			return nil
		},
	}
	gen.Flags().IntVar(&opts.Images, "images", 0, "number of distinct light curves (default max_file_id/2)")
	gen.Flags().IntVar(&opts.Delay, "delay", 5, "distance between a light curve and its transit companion")
	gen.Flags().Uint64Var(&opts.Seed, "seed", 42, "random seed")
	gen.Flags().IntVar(&opts.Cohorts, "cohorts", 1, "number of cohorts")
	gen.Flags().BoolVar(&opts.Replace, "replace", false, "delete existing assignments first")
	gen.Flags().BoolVar(&opts.Force, "force", false, "store the plan even if it disagrees with the server batch sizes")

	cmd.AddCommand(gen)
	return cmd
}

// GenerateViews builds the plan and stores it in one transaction. It returns
// the number of assignments written.
func GenerateViews(ctx context.Context, rt *Runtime, opts GenerateViewsOptions) (int, error) {
	cfg := rt.Config
	half := cfg.MaxFileID / 2
	if opts.Images == 0 {
		opts.Images = half
	}
	if opts.Images != half {
		return 0, fmt.Errorf("%w: images must equal max_file_id/2 (%d), got %d", common.ErrorValidation, half, opts.Images)
	}

	ids, err := rt.Repos.Users(rt.DB).ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) < cfg.NrUsers {
		return 0, fmt.Errorf("%w: need %d users for the first cohort, found %d", common.ErrorValidation, cfg.NrUsers, len(ids))
	}

	plan, err := viewplan.Generate(viewplan.Options{
		Users:        ids[:cfg.NrUsers],
		Images:       opts.Images,
		Delay:        opts.Delay,
		Seed:         opts.Seed,
		Cohorts:      opts.Cohorts,
		CohortOffset: int64(cfg.NrUsers),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	perUser := map[int64]int{}
	for _, v := range plan {
		if _, ok := known[v.UserID]; !ok {
			return 0, fmt.Errorf("%w: user %d does not exist", common.ErrorValidation, v.UserID)
		}
		perUser[v.UserID]++
	}

	if err := checkBatchSizes(ctx, rt, perUser, opts.Force); err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, rt.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		views := rt.Repos.Views(tx)
		if opts.Replace {
			if err := views.DeleteAll(ctx); err != nil {
				return err
			}
		}
		return views.CreateBatch(ctx, plan)
	})
	if err != nil {
		return 0, err
	}

	rt.Log.Info(ctx, "view assignments generated", "views", len(plan), "users", len(perUser), "cohorts", opts.Cohorts)
	return len(plan), nil
}

// checkBatchSizes compares each user's planned view count with the batch
// size the server enforces. Users folded more than once (third cohort and
// later) can disagree when nr_users does not divide the pool.
func checkBatchSizes(ctx context.Context, rt *Runtime, perUser map[int64]int, force bool) error {
	p := services.Partition{NrUsers: rt.Config.NrUsers, MaxFileID: rt.Config.MaxFileID}

	ids := make([]int64, 0, len(perUser))
	for id := range perUser {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var mismatched int
	for _, id := range ids {
		n, want := perUser[id], p.BatchSize(id)
		if n == want {
			continue
		}
		if !force {
			return fmt.Errorf("%w: user %d would get %d views but the server batch size is %d (use --force to store anyway)",
				common.ErrorValidation, id, n, want)
		}
		mismatched++
		rt.Log.Warn(ctx, "plan disagrees with server batch size", "user_id", id, "views", n, "batch_size", want)
	}
	if mismatched > 0 {
		rt.Log.Warn(ctx, "storing plan with mismatched batch sizes", "users", mismatched)
	}
	return nil
}
