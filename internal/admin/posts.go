package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmitrijs2005/transitwatch/internal/filex"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/spf13/cobra"
)

var postsHeader = []string{"id", "file_id", "user_id", "time", "certainty", "created_at"}

func newPostsCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect the submission ledger",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Dump the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "-" {
				_, err := ExportPosts(cmd.Context(), rt, rt.Out)
				return err
			}

			f, err := filex.CreateFile(out)
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := ExportPosts(cmd.Context(), rt, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "exported %d records to %s\n", n, out)
			return f.Close()
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "posts.csv", "output file, - for stdout")

	cmd.AddCommand(export)
	return cmd
}

// ExportPosts writes the ledger to w in insertion order. Records without a
// mark have an empty time column.
func ExportPosts(ctx context.Context, rt *Runtime, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(postsHeader); err != nil {
		return 0, err
	}

	n := 0
	err := rt.Repos.Posts(rt.DB).Each(ctx, func(p models.Post) error {
		n++
		return cw.Write(postRecord(p))
	})
	if err != nil {
		return n, err
	}

	cw.Flush()
	return n, cw.Error()
}

func postRecord(p models.Post) []string {
	t := ""
	if p.Time.Valid {
		t = strconv.FormatFloat(p.Time.Float64, 'f', -1, 64)
	}
	return []string{
		strconv.FormatInt(p.ID, 10),
		strconv.Itoa(p.FileID),
		strconv.FormatInt(p.UserID, 10),
		t,
		strconv.Itoa(p.Certainty),
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
