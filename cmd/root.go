/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tgbridge",
	Short: "Telegram to AI agent bridge",
	Long:  "Bridges a Telegram bot to a conversational AI agent with per-chat history, media normalization and voice transcription.",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Secrets like TELEGRAM_BOT_TOKEN can live in a local .env file.
	_ = godotenv.Load()
}
