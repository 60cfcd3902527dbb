package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with face metadata, newest first",
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user_id>",
	Short: "Delete a user's face samples and metadata",
	Long: `Delete a user's face samples and metadata record.
The trained model keeps recognizing the user until the next training run.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	usersListCmd.Flags().String("q", "", "Filter by name, email or user id")
	usersListCmd.Flags().Bool("json", false, "Output as JSON")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.service.ListUsers(ctx, mustGetString(cmd, "q"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return printJSON(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tNAME\tEMAIL\tROLE\tREGISTERED")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.UserID, r.DisplayName(), deref(r.Email), deref(r.RoleName), r.CreatedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d users\n", len(records))
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	userID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.service.DeleteUser(ctx, userID); err != nil {
		return err
	}
	fmt.Printf("Deleted face data for user %d\n", userID)
	return nil
}
