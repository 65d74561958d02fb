package citypermit

import (
	"fmt"
	"strconv"
	"time"
)

// Account summarizes the permit holder: remaining parking balance and how
// many reservations are currently active.
type Account struct {
	ID                     int
	RemainingTime          int
	ActiveReservationCount int
}

// Zone is the paid parking block for the current day. Timestamps are
// canonical UTC strings.
type Zone struct {
	ID        string
	StartTime string
	EndTime   string
}

// Reservation is one active parking reservation for a license plate.
type Reservation struct {
	ID           int
	LicensePlate string
	Name         string
	StartTime    string
	EndTime      string
}

// Favorite is a stored license plate. Name may be empty.
type Favorite struct {
	LicensePlate string
	Name         string
}

// accountFromPayload builds an Account from a permit media object.
func accountFromPayload(media map[string]any) (*Account, error) {
	count := 0
	switch reservations := media["ActiveReservations"].(type) {
	case nil:
	case []any:
		count = len(reservations)
	default:
		return nil, &ParseError{Message: "expected permit_media.ActiveReservations list"}
	}

	id, err := intField(media, "Code", "permit_media.Code")
	if err != nil {
		return nil, err
	}
	balance, err := intField(media, "Balance", "permit_media.Balance")
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:                     id,
		RemainingTime:          balance,
		ActiveReservationCount: count,
	}, nil
}

// zoneFromPayload builds the paid block for today from a permit object.
// A day without paid blocks yields a nil zone, not an error.
func zoneFromPayload(permit map[string]any, now time.Time) (*Zone, error) {
	code, err := strField(permit, "ZoneCode", "permit.ZoneCode")
	if err != nil {
		return nil, err
	}
	blocks, ok := permit["BlockTimes"].([]any)
	if !ok {
		return nil, &ParseError{Message: "expected permit.BlockTimes list"}
	}

	var start, end string
	for _, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			return nil, &ParseError{Message: "expected permit.BlockTimes item object"}
		}
		if free, ok := block["IsFree"].(bool); ok && free {
			continue
		}
		from, err := rawTimeField(block, "ValidFrom", "block.ValidFrom")
		if err != nil {
			return nil, err
		}
		until, err := timeField(block, "ValidUntil", "block.ValidUntil")
		if err != nil {
			return nil, err
		}
		// "Today" is the block's local calendar day. Block times carry the
		// service's offset, so a block starting this morning still counts
		// between local midnight and the UTC date rollover.
		if from.Format("2006-01-02") != now.In(from.Location()).Format("2006-01-02") {
			continue
		}
		canonical := formatTimestamp(from)
		if start == "" || canonical < start {
			start, end = canonical, until
		}
	}

	if start == "" {
		return nil, nil
	}

	return &Zone{ID: code, StartTime: start, EndTime: end}, nil
}

// reservationFromPayload builds a Reservation from one ActiveReservations
// entry.
func reservationFromPayload(data map[string]any) (*Reservation, error) {
	plate, ok := data["LicensePlate"].(map[string]any)
	if !ok {
		return nil, &ParseError{Message: "expected reservation.LicensePlate object"}
	}

	id, err := intField(data, "ReservationID", "reservation.ReservationID")
	if err != nil {
		return nil, err
	}
	value, err := strField(plate, "Value", "reservation.LicensePlate.Value")
	if err != nil {
		return nil, err
	}
	name, err := strField(plate, "DisplayValue", "reservation.LicensePlate.DisplayValue")
	if err != nil {
		return nil, err
	}
	start, err := timeField(data, "ValidFrom", "reservation.ValidFrom")
	if err != nil {
		return nil, err
	}
	end, err := timeField(data, "ValidUntil", "reservation.ValidUntil")
	if err != nil {
		return nil, err
	}

	return &Reservation{
		ID:           id,
		LicensePlate: value,
		Name:         name,
		StartTime:    start,
		EndTime:      end,
	}, nil
}

// favoriteFromPayload builds a Favorite from one LicensePlates entry.
func favoriteFromPayload(data map[string]any) (*Favorite, error) {
	value, err := strField(data, "Value", "favorite.Value")
	if err != nil {
		return nil, err
	}
	name := ""
	switch raw := data["Name"].(type) {
	case nil:
	case string:
		name = raw
	default:
		return nil, &ParseError{Message: fmt.Sprintf("invalid string for favorite.Name: %v", raw)}
	}

	return &Favorite{LicensePlate: value, Name: name}, nil
}

// toInt coerces the number representations the service mixes freely:
// JSON numbers and numeric strings.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid integer %v", value)
	}
}

func intField(data map[string]any, key, label string) (int, error) {
	n, err := toInt(data[key])
	if err != nil {
		return 0, &ParseError{Message: fmt.Sprintf("invalid int for %s: %v", label, data[key])}
	}
	return n, nil
}

func strField(data map[string]any, key, label string) (string, error) {
	s, ok := data[key].(string)
	if !ok {
		return "", &ParseError{Message: fmt.Sprintf("invalid string for %s: %v", label, data[key])}
	}
	return s, nil
}

// timeField parses and normalizes a timestamp field so records only ever
// carry canonical UTC strings.
func timeField(data map[string]any, key, label string) (string, error) {
	raw, ok := data[key].(string)
	if !ok {
		return "", &ParseError{Message: fmt.Sprintf("invalid timestamp for %s: %v", label, data[key])}
	}
	normalized, err := normalizeTimestamp(raw)
	if err != nil {
		return "", &ParseError{Message: fmt.Sprintf("invalid timestamp for %s: %q", label, raw)}
	}
	return normalized, nil
}

// rawTimeField parses a timestamp field keeping the offset it was sent in.
func rawTimeField(data map[string]any, key, label string) (time.Time, error) {
	raw, ok := data[key].(string)
	if !ok {
		return time.Time{}, &ParseError{Message: fmt.Sprintf("invalid timestamp for %s: %v", label, data[key])}
	}
	t, err := parseTimestamp(raw)
	if err != nil {
		return time.Time{}, &ParseError{Message: fmt.Sprintf("invalid timestamp for %s: %q", label, raw)}
	}
	return t, nil
}
