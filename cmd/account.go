package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// accountCmd shows the permit account summary
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the permit account summary",
	RunE:  runAccount,
}

// zoneCmd shows today's paid parking block
var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Show the paid parking hours for today",
	RunE:  runZone,
}

// statusCmd shows everything at once
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account, zone, reservations and favorites in one view",
	RunE:  runStatus,
}

// testCmd verifies connectivity and credentials
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the CityPermit service",
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(zoneCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(testCmd)
}

func runAccount(cmd *cobra.Command, args []string) error {
	account, err := client.GetAccount(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Account %d\n", account.ID)
	fmt.Printf("- Remaining time: %s\n", formatMinutes(account.RemainingTime))
	fmt.Printf("- Active reservations: %d\n", account.ActiveReservationCount)
	return nil
}

func runZone(cmd *cobra.Command, args []string) error {
	zone, err := client.GetZone(context.Background())
	if err != nil {
		return err
	}

	if zone == nil {
		fmt.Println("Parking is free today.")
		return nil
	}

	fmt.Printf("Zone %s: paid parking from %s until %s\n", zone.ID, zone.StartTime, zone.EndTime)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	snapshot, err := client.Snapshot(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Account %d\n", snapshot.Account.ID)
	fmt.Printf("- Remaining time: %s\n", formatMinutes(snapshot.Account.RemainingTime))

	if snapshot.Zone == nil {
		fmt.Println("- Parking is free today")
	} else {
		fmt.Printf("- Zone %s, paid %s until %s\n", snapshot.Zone.ID, snapshot.Zone.StartTime, snapshot.Zone.EndTime)
	}

	fmt.Printf("\nReservations (%d):\n", len(snapshot.Reservations))
	for _, reservation := range snapshot.Reservations {
		printReservation(reservation)
	}

	fmt.Printf("\nFavorites (%d):\n", len(snapshot.Favorites))
	for _, favorite := range snapshot.Favorites {
		printFavorite(favorite)
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s...\n", cfg.Service.URL)

	if _, err := client.Auth().EnsureAuthenticated(context.Background()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Println("✓ Login successful!")

	account, err := client.GetAccount(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch account: %w", err)
	}

	fmt.Printf("✓ Account %d reachable, %s remaining\n", account.ID, formatMinutes(account.RemainingTime))
	return nil
}

// formatMinutes renders a minute balance as hours and minutes.
func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
