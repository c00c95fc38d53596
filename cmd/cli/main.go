package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	app := &cliApp{}
	rootCmd := &cobra.Command{
		Use:   "disputelens",
		Short: "Command-line client for the dispute analysis backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&app.profile, "profile", "default", "Client profile the session is stored under")
	rootCmd.PersistentFlags().StringVar(&app.sessionFlag, "session", "", "Session id (overrides the stored one)")

	rootCmd.AddCommand(
		newUploadCmd(app),
		newFiltersCmd(app),
		newAnalyzeCmd(app),
		newChartsCmd(app),
		newReportCmd(app),
		newExportExcelCmd(app),
		newClearCmd(app),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}
