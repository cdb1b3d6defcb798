package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(countriesCmd)
	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(regionsCmd)
}

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "Lists every country known to the remote site.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		client, cleanup := createClient()
		defer cleanup()

		countries, err := client.Countries(cmd.Context())
		if err != nil {
			fatal("failed to list countries", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Country"})
		for _, country := range countries {
			t.AppendRow(table.Row{country.Idx, country.Name})
		}
		t.Render()
	},
}

var statesCmd = &cobra.Command{
	Use:   "states <country>",
	Short: "Lists the states of a country.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, cleanup := createClient()
		defer cleanup()
		ctx := cmd.Context()

		country, err := client.FindCountry(ctx, args[0])
		if err != nil {
			fatal("failed to resolve country", err)
		}
		states, err := client.States(ctx, country)
		if err != nil {
			fatal("failed to list states", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "State"})
		for _, state := range states {
			t.AppendRow(table.Row{state.Idx, state.Name})
		}
		t.Render()
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions <country> <state>",
	Short: "Lists the regions of a state.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client, cleanup := createClient()
		defer cleanup()
		ctx := cmd.Context()

		country, err := client.FindCountry(ctx, args[0])
		if err != nil {
			fatal("failed to resolve country", err)
		}
		state, err := client.FindState(ctx, country, args[1])
		if err != nil {
			fatal("failed to resolve state", err)
		}
		regions, err := client.Regions(ctx, state)
		if err != nil {
			fatal("failed to list regions", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Region"})
		for _, region := range regions {
			t.AppendRow(table.Row{region.Idx, region.Name})
		}
		t.Render()
	},
}
