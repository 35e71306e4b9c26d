package main

import (
	"os"

	"saladoverflow/internal/config"
	"saladoverflow/internal/log"

	"github.com/spf13/cobra"
)

var cfg config.AppConfig

var rootCmd = &cobra.Command{
	Use:   "saladoverflow",
	Short: "SaladOverflow Q&A backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !config.LoadDotEnv() {
			log.Info.Println("No .env file found, reading configuration from environment")
		}
		cfg = config.Load()
	},
	// 默认启动 HTTP 服务
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, recountCmd, disableCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error.Printf("Error executing command: %v", err)
		os.Exit(1)
	}
}
