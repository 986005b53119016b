package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lifecode-recipe/internal/app"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/pkg/common"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool

	// appOptions 額外的組裝選項，測試時用來替換 LLM
	appOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "chef",
	Short: "Lifecode Chef: recipe lookup and grocery costing",
	Long: `Lifecode Chef looks up recipes by dish name, matches their ingredients
against the approved grocery catalog and estimates the per-person cost.

Examples:
  chef ask "ragi kali"
  chef catalog --query millet
  chef match "Ragi Flour - 60g" "Almonds (Whole) - 10g"
  chef parse ./response.txt --name "ragi kali"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 日誌只輸出到 console，避免 CLI 在工作目錄建立 logs/
		return common.InitLoggerWithDir(logLevel, "")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (.env, yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(askCmd, catalogCmd, matchCmd, parseCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
