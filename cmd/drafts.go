package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orgreg/internal/config"
	"orgreg/internal/infrastructure/sqlite"
	"orgreg/internal/mode/shared"
	"orgreg/internal/session"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List saved registration drafts",
	RunE:  runDraftsList,
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <guid>",
	Short: "Delete a saved draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftsDelete,
}

func init() {
	draftsCmd.AddCommand(draftsDeleteCmd)
	rootCmd.AddCommand(draftsCmd)
}

// openDraftStore opens the configured draft database.
func openDraftStore() (*sqlite.DB, error) {
	dbPath := cfg.Drafts.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDraftsDBPath()
	}
	return sqlite.NewDB(dbPath)
}

func runDraftsList(cmd *cobra.Command, args []string) error {
	credentialsPath := cfg.Session.CredentialsPath
	if credentialsPath == "" {
		credentialsPath = config.DefaultCredentialsPath()
	}
	provider, err := session.Load(credentialsPath)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	db, err := openDraftStore()
	if err != nil {
		return fmt.Errorf("opening draft store: %w", err)
	}
	defer func() { _ = db.Close() }()

	drafts, err := db.Drafts().List(provider.UserID())
	if err != nil {
		return fmt.Errorf("listing drafts: %w", err)
	}

	if len(drafts) == 0 {
		cmd.Println("No saved drafts.")
		return nil
	}

	now := time.Now()
	for _, d := range drafts {
		name := d.Values["name"]
		if name == "" {
			name = "(unnamed)"
		}
		cmd.Printf("%s  %-30s  updated %s\n",
			d.GUID, name, shared.FormatRelativeTimeFrom(d.UpdatedAt, now))
	}
	return nil
}

func runDraftsDelete(cmd *cobra.Command, args []string) error {
	db, err := openDraftStore()
	if err != nil {
		return fmt.Errorf("opening draft store: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Drafts().Delete(args[0]); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	cmd.Println("Deleted.")
	return nil
}
