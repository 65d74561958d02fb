package citypermit

import (
	"context"
	"net/http"
	"time"
)

// CreateReservationInput carries the parameters for a new reservation.
// DateFrom defaults to now; a zero DateUntil leaves the reservation
// open-ended.
type CreateReservationInput struct {
	LicensePlate string
	Name         string
	DateFrom     time.Time
	DateUntil    time.Time
}

// GetAccount fetches the account summary.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	_, media, err := c.fetchPermit(ctx)
	if err != nil {
		return nil, err
	}
	return accountFromPayload(media)
}

// GetZone returns the paid parking block for the current day, or nil when
// parking is free all day.
func (c *Client) GetZone(ctx context.Context) (*Zone, error) {
	return c.zoneAt(ctx, time.Now())
}

func (c *Client) zoneAt(ctx context.Context, now time.Time) (*Zone, error) {
	permit, _, err := c.fetchPermit(ctx)
	if err != nil {
		return nil, err
	}
	return zoneFromPayload(permit, now)
}

// ListReservations returns all active reservations for the account.
func (c *Client) ListReservations(ctx context.Context) ([]Reservation, error) {
	_, media, err := c.fetchPermit(ctx)
	if err != nil {
		return nil, err
	}
	return reservationsFromMedia(media)
}

// CreateReservation starts a reservation for a license plate and returns
// the reservation the service created for it.
func (c *Client) CreateReservation(ctx context.Context, input CreateReservationInput) (*Reservation, error) {
	typeID, code, err := c.ensureMediaDefaults(ctx)
	if err != nil {
		return nil, err
	}

	dateFrom := input.DateFrom
	if dateFrom.IsZero() {
		dateFrom = time.Now()
	}

	payload := map[string]any{
		"permitMediaTypeID": typeID,
		"permitMediaCode":   code,
		"DateFrom":          formatTimestamp(dateFrom),
		"LicensePlate": map[string]any{
			"Value": input.LicensePlate,
			"Name":  input.Name,
		},
	}
	if !input.DateUntil.IsZero() {
		payload["DateUntil"] = formatTimestamp(input.DateUntil)
	}

	data, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/reservation/create", Body: payload})
	if err != nil {
		return nil, err
	}

	c.logger.Info().Str("license_plate", input.LicensePlate).Msg("Created reservation")

	return pickReservation(data, input.LicensePlate, dateFrom, input.DateUntil)
}

// EndReservation ends an active reservation by its identifier.
func (c *Client) EndReservation(ctx context.Context, reservationID int) error {
	typeID, code, err := c.ensureMediaDefaults(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"ReservationID":     reservationID,
		"permitMediaTypeID": typeID,
		"permitMediaCode":   code,
	}

	data, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/reservation/end", Body: payload})
	if err != nil {
		return err
	}

	c.logger.Info().Int("reservation_id", reservationID).Msg("Ended reservation")

	c.maybeUpdateMediaDefaults(data)
	return nil
}

// DeleteReservation deletes a reservation by ending it.
func (c *Client) DeleteReservation(ctx context.Context, reservationID int) error {
	return c.EndReservation(ctx, reservationID)
}

// ListFavorites returns all stored license plates for the account.
func (c *Client) ListFavorites(ctx context.Context) ([]Favorite, error) {
	_, media, err := c.fetchPermit(ctx)
	if err != nil {
		return nil, err
	}

	items, err := listField(media, "LicensePlates", "favorites")
	if err != nil {
		return nil, err
	}

	favorites := make([]Favorite, 0, len(items))
	for _, item := range items {
		entry, err := objectItem(item, "favorite")
		if err != nil {
			return nil, err
		}
		favorite, err := favoriteFromPayload(entry)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, *favorite)
	}
	return favorites, nil
}

// CreateFavorite stores a license plate under an optional name.
func (c *Client) CreateFavorite(ctx context.Context, name, licensePlate string) (*Favorite, error) {
	if err := c.upsertFavorite(ctx, name, licensePlate); err != nil {
		return nil, err
	}
	return &Favorite{LicensePlate: licensePlate, Name: name}, nil
}

// UpdateFavorite replaces a stored license plate. The service has no
// native update call, so this removes the favorite and recreates it; a
// failed remove (404 included) aborts before the create step.
func (c *Client) UpdateFavorite(ctx context.Context, name, licensePlate string) (*Favorite, error) {
	if err := c.DeleteFavorite(ctx, name, licensePlate); err != nil {
		return nil, err
	}
	return c.CreateFavorite(ctx, name, licensePlate)
}

// DeleteFavorite removes a stored license plate.
func (c *Client) DeleteFavorite(ctx context.Context, name, licensePlate string) error {
	typeID, code, err := c.ensureMediaDefaults(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"permitMediaTypeID": typeID,
		"permitMediaCode":   code,
		"licensePlate":      licensePlate,
		"name":              name,
	}

	data, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/permitmedialicenseplate/remove", Body: payload})
	if err != nil {
		return err
	}

	c.logger.Info().Str("license_plate", licensePlate).Msg("Removed favorite")

	c.maybeUpdateMediaDefaults(data)
	return nil
}

func (c *Client) upsertFavorite(ctx context.Context, name, licensePlate string) error {
	typeID, code, err := c.ensureMediaDefaults(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"permitMediaTypeID": typeID,
		"permitMediaCode":   code,
		"licensePlate": map[string]any{
			"Value": licensePlate,
			"Name":  name,
		},
		"updateLicensePlate": nil,
	}

	data, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/permitmedialicenseplate/upsert", Body: payload})
	if err != nil {
		return err
	}

	c.logger.Info().Str("license_plate", licensePlate).Msg("Stored favorite")

	c.maybeUpdateMediaDefaults(data)
	return nil
}

// fetchPermit loads the permit root object and its first permit media,
// refreshing the cached media defaults on the way.
func (c *Client) fetchPermit(ctx context.Context) (map[string]any, map[string]any, error) {
	data, err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/login/getbase"})
	if err != nil {
		return nil, nil, err
	}

	permit, media, err := extractPermitMedia(data)
	if err != nil {
		return nil, nil, err
	}
	if err := c.updateMediaDefaults(media); err != nil {
		return nil, nil, err
	}
	return permit, media, nil
}

// ensureMediaDefaults returns the cached permit media type and code,
// fetching the permit first when the cache is cold.
func (c *Client) ensureMediaDefaults(ctx context.Context) (int, string, error) {
	c.mediaMu.Lock()
	typeID, code := c.defaultMediaType, c.defaultMediaCode
	c.mediaMu.Unlock()

	if typeID != 0 && code != "" {
		return typeID, code, nil
	}

	if _, _, err := c.fetchPermit(ctx); err != nil {
		return 0, "", err
	}

	c.mediaMu.Lock()
	typeID, code = c.defaultMediaType, c.defaultMediaCode
	c.mediaMu.Unlock()

	if typeID == 0 || code == "" {
		return 0, "", &ParseError{Message: "missing permit media defaults"}
	}
	return typeID, code, nil
}

func (c *Client) updateMediaDefaults(media map[string]any) error {
	typeID, err := intField(media, "TypeID", "permit_media.TypeID")
	if err != nil {
		return err
	}
	code, err := strField(media, "Code", "permit_media.Code")
	if err != nil {
		return err
	}

	c.mediaMu.Lock()
	c.defaultMediaType = typeID
	c.defaultMediaCode = code
	c.mediaMu.Unlock()
	return nil
}

// maybeUpdateMediaDefaults refreshes the cached defaults when a write
// endpoint echoed permit data back; empty or unrelated payloads are
// ignored.
func (c *Client) maybeUpdateMediaDefaults(data any) {
	root, ok := data.(map[string]any)
	if !ok {
		return
	}
	if _, hasPermit := root["Permit"]; !hasPermit {
		if _, hasPermits := root["Permits"]; !hasPermits {
			return
		}
	}
	_, media, err := extractPermitMedia(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Ignoring malformed permit echo")
		return
	}
	if err := c.updateMediaDefaults(media); err != nil {
		c.logger.Debug().Err(err).Msg("Ignoring malformed permit media echo")
	}
}

// extractPermitMedia digs the permit object (or the first of a permit
// list) and its first permit media entry out of a response tree.
func extractPermitMedia(data any) (map[string]any, map[string]any, error) {
	root, ok := data.(map[string]any)
	if !ok {
		return nil, nil, &ParseError{Message: "expected response object"}
	}

	var permit map[string]any
	switch {
	case root["Permit"] != nil:
		permit, ok = root["Permit"].(map[string]any)
		if !ok {
			return nil, nil, &ParseError{Message: "expected permit object"}
		}
	case root["Permits"] != nil:
		permits, ok := root["Permits"].([]any)
		if !ok {
			return nil, nil, &ParseError{Message: "expected permits list"}
		}
		if len(permits) == 0 {
			return nil, nil, &ParseError{Message: "expected permit list to have items"}
		}
		permit, ok = permits[0].(map[string]any)
		if !ok {
			return nil, nil, &ParseError{Message: "expected permit object"}
		}
	default:
		return nil, nil, &ParseError{Message: "expected permit data in response"}
	}

	medias, ok := permit["PermitMedias"].([]any)
	if !ok {
		return nil, nil, &ParseError{Message: "expected permit.PermitMedias list"}
	}
	if len(medias) == 0 {
		return nil, nil, &ParseError{Message: "expected permit media list to have items"}
	}
	media, ok := medias[0].(map[string]any)
	if !ok {
		return nil, nil, &ParseError{Message: "expected permit_media object"}
	}

	return permit, media, nil
}

// reservationsFromMedia maps the ActiveReservations list of a permit
// media object.
func reservationsFromMedia(media map[string]any) ([]Reservation, error) {
	items, err := listField(media, "ActiveReservations", "reservations")
	if err != nil {
		return nil, err
	}

	reservations := make([]Reservation, 0, len(items))
	for _, item := range items {
		entry, err := objectItem(item, "reservation")
		if err != nil {
			return nil, err
		}
		reservation, err := reservationFromPayload(entry)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *reservation)
	}
	return reservations, nil
}

// pickReservation finds the reservation matching the create call in the
// echoed permit, preferring an exact plate and time match and falling
// back to the first entry.
func pickReservation(data any, licensePlate string, dateFrom, dateUntil time.Time) (*Reservation, error) {
	_, media, err := extractPermitMedia(data)
	if err != nil {
		return nil, err
	}
	reservations, err := reservationsFromMedia(media)
	if err != nil {
		return nil, err
	}
	if len(reservations) == 0 {
		return nil, &ParseError{Message: "no active reservations in response"}
	}

	for i, reservation := range reservations {
		if reservation.LicensePlate != licensePlate {
			continue
		}
		if !dateFrom.IsZero() && reservation.StartTime != formatTimestamp(dateFrom) {
			continue
		}
		if !dateUntil.IsZero() && reservation.EndTime != formatTimestamp(dateUntil) {
			continue
		}
		return &reservations[i], nil
	}
	return &reservations[0], nil
}

// listField reads an optional list field, treating absence as empty.
func listField(data map[string]any, key, label string) ([]any, error) {
	switch items := data[key].(type) {
	case nil:
		return nil, nil
	case []any:
		return items, nil
	default:
		return nil, &ParseError{Message: "expected " + label + " list"}
	}
}

func objectItem(item any, label string) (map[string]any, error) {
	entry, ok := item.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "expected " + label + " object"}
	}
	return entry, nil
}
