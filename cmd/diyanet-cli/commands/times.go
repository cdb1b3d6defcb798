package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(timesCmd)
}

var timesCmd = &cobra.Command{
	Use:   "times <country> <state> <region>",
	Short: "Prints today's prayer times for a region.",
	Args:  cobra.ExactArgs(3),
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
		region, err := client.FindRegion(ctx, state, args[2])
		if err != nil {
			fatal("failed to resolve region", err)
		}

		times, err := client.PrayerTimes(ctx, region)
		if err != nil {
			fatal("failed to read prayer times", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Prayer", "Time"})
		t.AppendRows([]table.Row{
			{"Fajr", times.Fajr},
			{"Sunrise", times.Sunrise},
			{"Dhuhr", times.Dhuhr},
			{"Asr", times.Asr},
			{"Maghrib", times.Maghrib},
			{"Isha", times.Isha},
		})
		t.Render()
	},
}
