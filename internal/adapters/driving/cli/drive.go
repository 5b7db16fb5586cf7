package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quill/internal/adapters/driving/oauth"
	"github.com/custodia-labs/quill/internal/core/domain"
)

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

var driveTimeout time.Duration

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Manage the Google Drive connection",
	Long: `Connect quill to Google Drive. With storage.backend = drive, versions,
transcripts and shards are kept in a folder tree under drive.root_folder.

Requires google.client_id and google.client_secret (or GOOGLE_CLIENT_ID /
GOOGLE_CLIENT_SECRET) of a desktop OAuth app.`,
}

var driveConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authorise access to Google Drive",
	Args:  cobra.NoArgs,
	RunE:  runDriveConnect,
}

var driveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Drive connection status",
	Args:  cobra.NoArgs,
	RunE:  runDriveStatus,
}

var driveDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the stored Drive token",
	Args:  cobra.NoArgs,
	RunE:  runDriveDisconnect,
}

func init() {
	driveConnectCmd.Flags().DurationVar(&driveTimeout, "timeout", 5*time.Minute, "how long to wait for the browser")

	driveCmd.AddCommand(driveConnectCmd)
	driveCmd.AddCommand(driveStatusCmd)
	driveCmd.AddCommand(driveDisconnectCmd)
	rootCmd.AddCommand(driveCmd)
}

func runDriveConnect(cmd *cobra.Command, _ []string) error {
	if driveAuth == nil {
		return notConfigured("drive auth", "")
	}

	ctx := commandContext(cmd)
	flow, err := driveAuth.StartFlow(ctx)
	if err != nil {
		return fmt.Errorf("failed to start authorisation: %w", err)
	}

	server := oauth.NewCallbackServer(flow.RedirectPort, flow.State)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop() //nolint:errcheck

	cmd.Println("Opening your browser to authorise quill...")
	if err := openBrowser(flow.AuthURL); err != nil {
		cmd.Println("Could not open a browser. Visit this URL to continue:")
	}
	cmd.Printf("\n  %s\n\n", flow.AuthURL)
	cmd.Println("Waiting for authorisation...")

	waitCtx, cancel := context.WithTimeout(ctx, driveTimeout)
	defer cancel()
	code, err := server.WaitForCode(waitCtx)
	if err != nil {
		return fmt.Errorf("authorisation failed: %w", err)
	}

	if err := driveAuth.CompleteFlow(ctx, flow, code); err != nil {
		return fmt.Errorf("failed to complete authorisation: %w", err)
	}
	cmd.Println("Google Drive connected.")
	return nil
}

func runDriveStatus(cmd *cobra.Command, _ []string) error {
	if driveAuth == nil {
		return notConfigured("drive auth", "")
	}

	token, err := driveAuth.Status()
	if errors.Is(err, domain.ErrAuthRequired) {
		cmd.Println("Google Drive: not connected. Run 'quill drive connect'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	cmd.Println("Google Drive: connected")
	switch {
	case token.Expiry.IsZero():
	case token.IsExpired() && token.RefreshToken != "":
		cmd.Println("  Access token expired; it will be refreshed on next use.")
	case token.IsExpired():
		cmd.Println("  Access token expired and cannot be refreshed. Run 'quill drive connect'.")
	default:
		cmd.Printf("  Access token valid until %s\n", token.Expiry.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runDriveDisconnect(cmd *cobra.Command, _ []string) error {
	if driveAuth == nil {
		return notConfigured("drive auth", "")
	}
	if err := driveAuth.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	cmd.Println("Google Drive disconnected.")
	return nil
}
