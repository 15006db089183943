package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Manage trip windows used for automatic trip tags",
}

var tripsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List trips",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		trips, err := a.Repo.Trips(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(trips) == 0 {
			fmt.Fprintln(w, "No trips.")
			return nil
		}
		for _, t := range trips {
			fmt.Fprintf(w, "%s  ", t.ID)
			tagColor.Fprintf(w, "%-24s", t.Name)
			dateColor.Fprintf(w, " %s .. %s\n", t.Start, t.End)
		}
		return nil
	},
}

var tripsAddCmd = &cobra.Command{
	Use:   "add NAME START END",
	Short: "Add a trip; dates are YYYY-MM-DD and inclusive",
	Long:  "Add a trip. Transactions committed later inside the window get the Trip tag and the trip name. Existing transactions are not retagged.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		trip, err := a.Repo.AddTrip(cmd.Context(), domain.Trip{Name: args[0], Start: args[1], End: args[2]})
		if err != nil {
			return err
		}
		creditColor.Fprintf(cmd.OutOrStdout(), "Added trip %s (%s)\n", trip.Name, trip.ID)
		return nil
	},
}

var tripsRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a trip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.Repo.RemoveTrip(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("trip %s not found", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed trip %s\n", args[0])
		return nil
	},
}

func init() {
	tripsCmd.AddCommand(tripsLsCmd, tripsAddCmd, tripsRmCmd)
}
