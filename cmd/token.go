package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue an access token for a user",
	Long:  `Sign an access token for an existing user, for local testing against the API`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		token, err := deps.Auth.IssueToken(context.Background(), userID)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
