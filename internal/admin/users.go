package admin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/cryptox"
	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/filex"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newUsersCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage participant accounts",
	}
	cmd.AddCommand(newUsersAddCmd(rt))
	cmd.AddCommand(newUsersGenerateCmd(rt))
	return cmd
}

func newUsersAddCmd(rt *Runtime) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create one account, prompting for its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(rt.Out, "Enter password: ")
			pw, err := readPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(rt.Out)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			user, err := AddUser(cmd.Context(), rt, models.RegisterRequest{
				UserName: args[0],
				Email:    email,
				Password: string(pw),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "created user %s with id %d\n", user.UserName, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "optional email address")
	return cmd
}

// AddUser validates req and stores the account with a bcrypt hash.
func AddUser(ctx context.Context, rt *Runtime, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := rt.Repos.Users(rt.DB).Create(ctx, &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("user %s: %w", req.UserName, err)
		}
		return nil, err
	}

	rt.Log.Info(ctx, "user created", "user_id", user.ID, "username", user.UserName)
	return user, nil
}

type GenerateUsersOptions struct {
	Count          int
	PasswordLength int
	Prefix         string
}

// Credential is one line of the handout given to participants.
type Credential struct {
	UserName string
	Password string
}

func newUsersGenerateCmd(rt *Runtime) *cobra.Command {
	var (
		opts GenerateUsersOptions
		out  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create numbered accounts with random passwords and write a CSV handout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := GenerateUsers(cmd.Context(), rt, opts)
			if err != nil {
				return err
			}

			if out == "-" {
				return WriteHandout(rt.Out, creds)
			}

			f, err := filex.CreateFile(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := WriteHandout(f, creds); err != nil {
				return err
			}
			fmt.Fprintf(rt.Out, "created %d users, handout written to %s\n", len(creds), out)
			return f.Close()
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 10, "number of users to create")
	cmd.Flags().IntVar(&opts.PasswordLength, "password-length", 8, "length of generated passwords")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "user", "username prefix")
	cmd.Flags().StringVarP(&out, "out", "o", "users.csv", "handout file, - for stdout")
	return cmd
}

// GenerateUsers creates <prefix>1..<prefix>N in a single transaction.
func GenerateUsers(ctx context.Context, rt *Runtime, opts GenerateUsersOptions) ([]Credential, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("%w: count must be positive", common.ErrorValidation)
	}
	if opts.PasswordLength < models.MinPasswordLength {
		return nil, fmt.Errorf("%w: password length must be at least %d", common.ErrorValidation, models.MinPasswordLength)
	}

	existing, err := rt.Repos.Users(rt.DB).ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		rt.Log.Warn(ctx, "users table is not empty", "existing", len(existing))
	}

	creds := make([]Credential, opts.Count)
	err = dbx.WithTx(ctx, rt.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := rt.Repos.Users(tx)
		for i := range creds {
			pw, err := common.MakeRandPassword(opts.PasswordLength)
			if err != nil {
				return err
			}
			hash, err := cryptox.HashPassword(pw)
			if err != nil {
				return err
			}

			name := fmt.Sprintf("%s%d", opts.Prefix, i+1)
			if _, err := users.Create(ctx, &models.User{UserName: name, PasswordHash: hash}); err != nil {
				return fmt.Errorf("user %s: %w", name, err)
			}
			creds[i] = Credential{UserName: name, Password: pw}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rt.Log.Info(ctx, "users generated", "count", len(creds))
	return creds, nil
}

// WriteHandout writes creds as a username,password CSV.
func WriteHandout(w io.Writer, creds []Credential) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"username", "password"}); err != nil {
		return err
	}
	for _, c := range creds {
		if err := cw.Write([]string{c.UserName, c.Password}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
