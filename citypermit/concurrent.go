package citypermit

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// snapshotConcurrency bounds how many calls a snapshot runs at once.
const snapshotConcurrency = 4

// Snapshot is a point-in-time view of the account: summary, today's
// zone, and the current reservations and favorites.
type Snapshot struct {
	Account      *Account
	Zone         *Zone
	Reservations []Reservation
	Favorites    []Favorite
}

// Snapshot fetches account, zone, reservations and favorites as
// independent requests. Each request authenticates on its own; a stale
// token may trigger more than one login, which the service tolerates.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	g.Go(func() error {
		account, err := c.GetAccount(ctx)
		if err != nil {
			return err
		}
		snapshot.Account = account
		return nil
	})
	g.Go(func() error {
		zone, err := c.GetZone(ctx)
		if err != nil {
			return err
		}
		snapshot.Zone = zone
		return nil
	})
	g.Go(func() error {
		reservations, err := c.ListReservations(ctx)
		if err != nil {
			return err
		}
		snapshot.Reservations = reservations
		return nil
	})
	g.Go(func() error {
		favorites, err := c.ListFavorites(ctx)
		if err != nil {
			return err
		}
		snapshot.Favorites = favorites
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
