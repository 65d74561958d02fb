package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvdham/permitctl/citypermit"
	"github.com/mvdham/permitctl/filter"
)

var (
	reservationPlate string
	reservationName  string
	reservationFrom  string
	reservationUntil string
)

// reservationsCmd groups the reservation subcommands
var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"reservation"},
	Short:   "Manage visitor parking reservations",
}

var reservationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active reservations",
	RunE:  runReservationsList,
}

var reservationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new reservation for a license plate",
	RunE:  runReservationsCreate,
}

var reservationsEndCmd = &cobra.Command{
	Use:   "end <reservation-id>",
	Short: "End an active reservation",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationsEnd,
}

func init() {
	rootCmd.AddCommand(reservationsCmd)
	reservationsCmd.AddCommand(reservationsListCmd)
	reservationsCmd.AddCommand(reservationsCreateCmd)
	reservationsCmd.AddCommand(reservationsEndCmd)

	reservationsListCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	reservationsListCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")

	reservationsCreateCmd.Flags().StringVar(&reservationPlate, "plate", "", "license plate value (required)")
	reservationsCreateCmd.Flags().StringVar(&reservationName, "name", "", "display name for the plate")
	reservationsCreateCmd.Flags().StringVar(&reservationFrom, "from", "", "start time (RFC 3339, default now)")
	reservationsCreateCmd.Flags().StringVar(&reservationUntil, "until", "", "end time (RFC 3339, default open-ended)")
	reservationsCreateCmd.MarkFlagRequired("plate")

	reservationsEndCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
}

func runReservationsList(cmd *cobra.Command, args []string) error {
	reservations, err := client.ListReservations(context.Background())
	if err != nil {
		return err
	}

	expression, err := getFilterExpression()
	if err != nil {
		return err
	}
	if expression != "" {
		f, err := filter.Compile(expression)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		reservations, err = filter.Reservations(f, reservations)
		if err != nil {
			return err
		}
	}

	if len(reservations) == 0 {
		fmt.Println("No active reservations.")
		return nil
	}

	fmt.Printf("Found %d reservations:\n", len(reservations))
	for _, reservation := range reservations {
		printReservation(reservation)
	}
	return nil
}

func runReservationsCreate(cmd *cobra.Command, args []string) error {
	input := citypermit.CreateReservationInput{
		LicensePlate: reservationPlate,
		Name:         reservationName,
	}

	if reservationFrom != "" {
		from, err := parseTimeFlag(reservationFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		input.DateFrom = from
	}
	if reservationUntil != "" {
		until, err := parseTimeFlag(reservationUntil)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		input.DateUntil = until
	}

	reservation, err := client.CreateReservation(context.Background(), input)
	if err != nil {
		return err
	}

	fmt.Printf("Created reservation %d for %s (%s until %s)\n",
		reservation.ID, reservation.LicensePlate, reservation.StartTime, reservation.EndTime)
	return nil
}

func runReservationsEnd(cmd *cobra.Command, args []string) error {
	reservationID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid reservation id: %s", args[0])
	}

	if !confirm(fmt.Sprintf("End reservation %d?", reservationID)) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := client.EndReservation(context.Background(), reservationID); err != nil {
		return err
	}

	fmt.Printf("✓ Reservation %d ended\n", reservationID)
	return nil
}

func printReservation(reservation citypermit.Reservation) {
	fmt.Printf("• #%d %s", reservation.ID, reservation.LicensePlate)
	if reservation.Name != "" {
		fmt.Printf(" (%s)", reservation.Name)
	}
	fmt.Println()
	if cfg.Safety.ShowDetails {
		fmt.Printf("  From:  %s\n", reservation.StartTime)
		fmt.Printf("  Until: %s\n", reservation.EndTime)
	}
}

// parseTimeFlag accepts RFC 3339 or a local "2006-01-02 15:04" shorthand.
func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", value, time.Local)
}
