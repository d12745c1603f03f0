package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newFilesCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage data files in object storage",
	}

	var (
		dir      string
		tutorial bool
	)
	push := &cobra.Command{
		Use:   "push",
		Short: "Upload the data files in a directory to the configured bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := rt.Config.S3Prefix
			if tutorial {
				prefix = rt.Config.S3TutorialPrefix()
			}
			if dir == "" {
				dir = rt.Config.DataDir
				if tutorial {
					dir = rt.Config.TutorialDir
				}
			}

			up, err := rt.NewUploader(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			n, err := PushFiles(cmd.Context(), rt, up, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "uploaded %d files from %s\n", n, dir)
			return nil
		},
	}
	push.Flags().StringVar(&dir, "dir", "", "directory to upload (default data_dir, or tutorial_dir with --tutorial)")
	push.Flags().BoolVar(&tutorial, "tutorial", false, "upload as tutorial files")

	cmd.AddCommand(push)
	return cmd
}

// PushFiles uploads every regular file in dir whose name ends in the
// configured extension. Subdirectories are skipped.
func PushFiles(ctx context.Context, rt *Runtime, up Uploader, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", dir, err)
	}

	suffix := "." + rt.Config.FileExtension
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		if err := pushFile(ctx, up, filepath.Join(dir, name), name); err != nil {
			return i, err
		}
		rt.Log.Debug(ctx, "file uploaded", "file", name)
	}

	rt.Log.Info(ctx, "files uploaded", "count", len(names), "dir", dir)
	return len(names), nil
}

func pushFile(ctx context.Context, up Uploader, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := up.Put(ctx, name, f, fi.Size()); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
