package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/app"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/config"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/database"
	"github.com/EnterpriseGlue/enterpriseglue-the-bridge-oss-sub002/internal/database/migrations"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Commit", "Publish").
func newApp(operation string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
func promptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

var rootCmd = &cobra.Command{
	Use:   "bridgevcs",
	Short: "Document versioning engine for workflow projects",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Vault:      %s\n", cfg.Vault.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Database.Type != "sqlite" {
			return fmt.Errorf("migrate requires a sqlite database, got %q", cfg.Database.Type)
		}
		if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		store, err := database.NewStoreFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		sqlStore := store.(*database.SQLiteStore)
		if err := migrations.Up(sqlStore.DB()); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}

		fmt.Println("Database is up to date.")
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := promptPassphrase("Passphrase for private key: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Encryption keys generated.")
		return nil
	},
}

var keysCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the private key passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Unlock")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := promptPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		if err := a.Unlock(pass); err != nil {
			return err
		}

		fmt.Println("Passphrase OK.")
		return nil
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project version control",
}

var projectInitCmd = &cobra.Command{
	Use:   "init PROJECT_ID",
	Short: "Initialize version control for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("InitProject")
		if err != nil {
			return err
		}
		defer a.Close()

		draft, err := a.InitProject(args[0], user)
		if err != nil {
			return fmt.Errorf("initializing project: %w", err)
		}

		fmt.Printf("Project %s initialized; draft branch %s for user %s\n", args[0], draft.ID, user)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Delete a project's entire version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteProject")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteProject(args[0]); err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}

		fmt.Printf("Project %s deleted\n", args[0])
		return nil
	},
}

// commit command
var commitCmd = &cobra.Command{
	Use:   "commit PROJECT_ID",
	Short: "Commit the live documents onto your draft branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		message, _ := cmd.Flags().GetString("message")

		a, err := newApp("Commit")
		if err != nil {
			return err
		}
		defer a.Close()

		commit, err := a.CommitDraft(args[0], user, message)
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}

		fmt.Printf("Committed %s\n", commit.ID)
		return nil
	},
}

// publish command
var publishCmd = &cobra.Command{
	Use:   "publish PROJECT_ID",
	Short: "Merge your draft branch into main",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("Publish")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Publish(args[0], user)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		fmt.Printf("Merged into main as %s (%d file(s) changed)\n", result.MergeCommitID, result.FilesChanged)
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log PROJECT_ID",
	Short: "View commit history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("Log")
		if err != nil {
			return err
		}
		defer a.Close()

		commits, err := a.Log(args[0], user)
		if err != nil {
			return err
		}

		if len(commits) == 0 {
			fmt.Println("No commits.")
			return nil
		}

		for _, c := range commits {
			fmt.Printf("%s  %s  %-9s  %s  %s\n",
				c.ID[:8],
				c.CreatedAt.Format("2006-01-02 15:04:05"),
				c.Source,
				c.AuthorUserID,
				c.Message,
			)
		}
		return nil
	},
}

// files command
var filesCmd = &cobra.Command{
	Use:   "files PROJECT_ID",
	Short: "List tracked files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("Files")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.Files(args[0], user)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			fmt.Println("No tracked files.")
			return nil
		}

		for _, f := range files {
			fmt.Printf("%s  %-4s  %s\n", f.ID[:8], f.DocType, f.Name)
		}
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions PROJECT_ID FILE_ID",
	Short: "View a file's numbered versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Versions")
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.Versions(args[0], args[1])
		if err != nil {
			return err
		}

		if len(versions) == 0 {
			fmt.Println("No versions.")
			return nil
		}

		for _, v := range versions {
			fmt.Printf("v%-4d  %s  %s\n", v.VersionNumber, v.CommitID[:8], v.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// uncommitted command
var uncommittedCmd = &cobra.Command{
	Use:   "uncommitted PROJECT_ID",
	Short: "List live documents that differ from a commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, _ := cmd.Flags().GetString("baseline")

		a, err := newApp("Uncommitted")
		if err != nil {
			return err
		}
		defer a.Close()

		changes, err := a.Uncommitted(args[0], baseline)
		if err != nil {
			return err
		}

		if len(changes.FileIDs) == 0 {
			fmt.Println("No uncommitted changes.")
			return nil
		}

		for _, id := range changes.FileIDs {
			fmt.Println(id)
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore PROJECT_ID COMMIT_ID",
	Short: "Restore the live documents to the state of a commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Restoring encrypted content needs the unlocked private key.
		if cfg.Encryption.Type == "age" {
			pass, err := promptPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			if err := a.Unlock(pass); err != nil {
				return err
			}
		}

		result, err := a.Restore(args[0], args[1], user)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Restored %d file(s); recorded as %s\n", result.RestoredFiles, result.Commit.ID)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	keysCmd.AddCommand(keysCheckCmd)

	projectCmd.AddCommand(projectInitCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectInitCmd.Flags().StringP("user", "u", "", "User owning the draft branch")
	projectInitCmd.MarkFlagRequired("user")

	commitCmd.Flags().StringP("user", "u", "", "User owning the draft branch")
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("user")
	commitCmd.MarkFlagRequired("message")

	publishCmd.Flags().StringP("user", "u", "", "User owning the draft branch")
	publishCmd.MarkFlagRequired("user")

	logCmd.Flags().StringP("user", "u", "", "Show the user's draft branch instead of main")
	filesCmd.Flags().StringP("user", "u", "", "Show the user's draft branch instead of main")

	uncommittedCmd.Flags().String("baseline", "", "Baseline commit id")

	restoreCmd.Flags().StringP("user", "u", "", "User recorded as the restore author")
	restoreCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(uncommittedCmd)
	rootCmd.AddCommand(restoreCmd)
}
