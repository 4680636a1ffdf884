package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanhub/lanhub/pkg/config"
)

var initForce bool

// sampleUsers seeds a first users file so the server starts out of the box.
// Columns: id, password, msgDown, msgUp, fileDown, fileUp.
const sampleUsers = `id, password, msgDown, msgUp, fileDown, fileUp
admin, changeme, 1, 1, 1, 1
guest, guest, 1, 0, 1, 0
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample lanhub configuration file and users file.

By default the files are created in the current directory as lanhub.yaml
and users.csv. Use --config to choose another config path.

Examples:
  # Initialize in the current directory
  lanhubd init

  # Initialize with custom path
  lanhubd init --config /etc/lanhub/config.yaml

  # Force overwrite existing config
  lanhubd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := config.GetDefaultConfig()
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	if _, err := os.Stat(cfg.Users.File); os.IsNotExist(err) {
		if err := os.WriteFile(cfg.Users.File, []byte(sampleUsers), 0o600); err != nil {
			return fmt.Errorf("write sample users file: %w", err)
		}
		fmt.Printf("Sample users file created at: %s\n", cfg.Users.File)
	}
	if err := os.MkdirAll(cfg.Share.Path, 0o755); err != nil {
		return fmt.Errorf("create share directory: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration and users files to customize your setup")
	fmt.Println("  2. Start the server with: lanhubd start")
	return nil
}
