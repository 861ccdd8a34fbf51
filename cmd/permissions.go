package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/frahmantamala/planning-admin/internal/access"
	accessPostgres "github.com/frahmantamala/planning-admin/internal/access/postgres"
	"github.com/frahmantamala/planning-admin/internal/auth"
	authPostgres "github.com/frahmantamala/planning-admin/internal/auth/postgres"
	"github.com/frahmantamala/planning-admin/internal/permission"
	"github.com/spf13/cobra"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Inspect permission resolution",
}

var showPermissionsCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a user's effective permissions matrix",
	Long:  `Resolve the permissions matrix a user would get in an organization, or in their default organization when none is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showPermissions(cmd.Context(), cmd.OutOrStdout()); err != nil {
			log.Fatal(err)
		}
	},
}

var (
	permissionsEmail string
	permissionsOrgID string
)

func init() {
	showPermissionsCmd.Flags().StringVar(&permissionsEmail, "email", "", "email of the user to resolve")
	showPermissionsCmd.Flags().StringVar(&permissionsOrgID, "organization", "", "organization id; the default membership is used when empty")
	_ = showPermissionsCmd.MarkFlagRequired("email")

	permissionsCmd.AddCommand(showPermissionsCmd)
}

func showPermissions(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = os.Stdout
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	db, err := initGorm(sqlDB)
	if err != nil {
		return err
	}

	user, err := authPostgres.NewRepository(db).GetUserByEmail(ctx, permissionsEmail)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no user with email %s", permissionsEmail)
	}

	membership, matrix, err := access.NewRoleResolver(accessPostgres.NewStore(db)).Resolve(ctx, user, permissionsOrgID)
	if err != nil {
		return fmt.Errorf("resolve permissions: %w", err)
	}

	printPermissions(out, user, membership, matrix)
	return nil
}

func printPermissions(out io.Writer, user *auth.User, membership *access.Membership, matrix permission.Matrix) {
	fmt.Fprintf(out, "user:         %s (id %d)\n", user.Email, user.ID)
	fmt.Fprintf(out, "manager:      %t\n", access.IsManager(user))
	if membership != nil {
		role := "-"
		if membership.OrgRole != nil {
			role = membership.OrgRole.Name
		}
		fmt.Fprintf(out, "organization: %s (role %s, org admin %t)\n", membership.OrganizationID, role, membership.IsOrgAdmin)
	} else {
		fmt.Fprintln(out, "organization: none")
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tVIEW\tEDIT")
	for _, tool := range permission.Tools {
		e := matrix.Entry(tool)
		fmt.Fprintf(tw, "%s\t%t\t%t\n", tool, e.View, e.Edit)
	}
	_ = tw.Flush()
}
