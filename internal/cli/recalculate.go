package cli

import (
	"github.com/spf13/cobra"
)

// newRecalculateCmd builds the command that forces the full-rebuild
// path for one user, the same work the scheduled recalculation job
// performs.
func newRecalculateCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Rebuild a user's yearly summaries from scratch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, eng, err := openEngine()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := eng.Recalculate(cmd.Context(), userID); err != nil {
				return err
			}
			logger.Info().Str("user_id", userID).Msg("summaries recalculated")
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to recalculate")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
