package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvdham/permitctl/citypermit"
	"github.com/mvdham/permitctl/filter"
)

var (
	favoritePlate string
	favoriteName  string
)

// favoritesCmd groups the favorite subcommands
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"favorite"},
	Short:   "Manage favorite license plates",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite license plates",
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a favorite license plate",
	RunE:  runFavoritesAdd,
}

var favoritesUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a stored license plate",
	RunE:  runFavoritesUpdate,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a favorite license plate",
	RunE:  runFavoritesRemove,
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesUpdateCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)

	favoritesListCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")

	for _, cmd := range []*cobra.Command{favoritesAddCmd, favoritesUpdateCmd, favoritesRemoveCmd} {
		cmd.Flags().StringVar(&favoritePlate, "plate", "", "license plate value (required)")
		cmd.Flags().StringVar(&favoriteName, "name", "", "display name for the plate")
		cmd.MarkFlagRequired("plate")
	}
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	favorites, err := client.ListFavorites(context.Background())
	if err != nil {
		return err
	}

	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		favorites, err = filter.Favorites(f, favorites)
		if err != nil {
			return err
		}
	}

	if len(favorites) == 0 {
		fmt.Println("No favorites stored.")
		return nil
	}

	fmt.Printf("Found %d favorites:\n", len(favorites))
	for _, favorite := range favorites {
		printFavorite(favorite)
	}
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	favorite, err := client.CreateFavorite(context.Background(), favoriteName, favoritePlate)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Stored %s\n", favorite.LicensePlate)
	return nil
}

func runFavoritesUpdate(cmd *cobra.Command, args []string) error {
	favorite, err := client.UpdateFavorite(context.Background(), favoriteName, favoritePlate)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Updated %s\n", favorite.LicensePlate)
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	if err := client.DeleteFavorite(context.Background(), favoriteName, favoritePlate); err != nil {
		return err
	}

	fmt.Printf("✓ Removed %s\n", favoritePlate)
	return nil
}

func printFavorite(favorite citypermit.Favorite) {
	fmt.Printf("• %s", favorite.LicensePlate)
	if favorite.Name != "" {
		fmt.Printf(" (%s)", favorite.Name)
	}
	fmt.Println()
}
