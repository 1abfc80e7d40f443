package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zheruizz/another.ai-app/cmd/cli/img"
	"github.com/zheruizz/another.ai-app/cmd/cli/seed"
	"github.com/zheruizz/another.ai-app/cmd/cli/survey"
)

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddGroup(seed.Group, survey.Group, img.Group)
	rootCmd.AddCommand(seed.Command, survey.Run, survey.Results, img.Avatar)
}

var rootCmd = &cobra.Command{
	Use:          "synthpanel-cli",
	Long:         `Command line utilities for running synthetic persona A/B surveys`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
