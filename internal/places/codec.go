package places

import (
	"strconv"
	"strings"

	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/journals"
	"io.winapps.tripjournal/internal/models/trip"
)

func placeData(in Input) map[string]any {
	return map[string]any{
		"name":          in.Name,
		"address":       in.Address,
		"latitude":      floatOrNil(in.Latitude),
		"longitude":     floatOrNil(in.Longitude),
		"website":       in.Website,
		"phone":         in.Phone,
		"opening_hours": in.OpeningHours,
		"rating":        floatOrNil(in.Rating),
		"categories":    stringsOrEmpty(in.Categories),
		"external_id":   in.ExternalID,
		"created_at":    docstore.ServerTimestamp,
	}
}

func visitData(placeID string, in Input, order int) map[string]any {
	return map[string]any{
		"place_ref":    docstore.Ref{Path: placePath(placeID)},
		"date":         in.Date,
		"order":        order,
		"notes":        in.Notes,
		"description":  in.Description,
		"category":     in.Category,
		"friendliness": stringsOrEmpty(in.Friendliness),
		"cost":         floatOrNil(in.Cost),
		"created_at":   docstore.ServerTimestamp,
		"updated_at":   docstore.ServerTimestamp,
	}
}

// DecodePlace reads a canonical place document.
func DecodePlace(snap *docstore.Snapshot) trip.Place {
	d := snap.Data
	p := trip.Place{
		ID:           snap.ID(),
		Name:         docstore.String(d, "name"),
		Address:      docstore.String(d, "address"),
		Latitude:     floatPtr(d, "latitude"),
		Longitude:    floatPtr(d, "longitude"),
		Website:      docstore.String(d, "website"),
		Phone:        docstore.String(d, "phone"),
		OpeningHours: docstore.String(d, "opening_hours"),
		Rating:       floatPtr(d, "rating"),
		Categories:   docstore.Strings(d, "categories"),
		ExternalID:   docstore.String(d, "external_id"),
	}
	if p.ExternalID == "" {
		p.ExternalID = docstore.String(d, "google_place_id")
	}
	p.CreatedAt, _ = docstore.Time(d, "created_at")
	return p
}

// DecodeJournalPlace reads a journal place, either a sub-collection document
// or an entry of the older embedded array. References stored as plain paths
// or as a bare place ID are accepted.
func DecodeJournalPlace(journalID string, snap *docstore.Snapshot) trip.JournalPlace {
	return decodeVisit(journalID, snap.ID(), snap.Data)
}

// DecodeEmbedded reads the entries of a journal's embedded places array.
// Entries without an id get a positional one.
func DecodeEmbedded(journalID string, entries []map[string]any) []trip.JournalPlace {
	out := make([]trip.JournalPlace, 0, len(entries))
	for i, e := range entries {
		id := docstore.String(e, "id")
		if id == "" {
			id = "embedded-" + strconv.Itoa(i)
		}
		out = append(out, decodeVisit(journalID, id, e))
	}
	return out
}

func decodeVisit(journalID, id string, d map[string]any) trip.JournalPlace {
	jp := trip.JournalPlace{
		ID:           id,
		JournalID:    journalID,
		Date:         journals.DateField(d, "date"),
		Notes:        docstore.String(d, "notes"),
		Description:  docstore.String(d, "description"),
		Category:     docstore.String(d, "category"),
		Friendliness: docstore.Strings(d, "friendliness"),
		Cost:         floatPtr(d, "cost"),
		Name:         docstore.String(d, "name"),
		Address:      docstore.String(d, "address"),
		Latitude:     floatPtr(d, "latitude"),
		Longitude:    floatPtr(d, "longitude"),
	}
	if docstore.String(d, "date") == trip.UnscheduledDate {
		jp.Date = trip.UnscheduledDate
	}
	if jp.Date == "" {
		jp.Date = journals.DateField(d, "date_visited")
	}
	if order, ok := docstore.Int(d, "order"); ok {
		jp.Order = order
	}

	if ref, ok := docstore.RefValue(d, "place_ref"); ok {
		jp.PlaceRef = ref.Path
	} else if s := docstore.String(d, "place_ref"); strings.Contains(s, "/") {
		jp.PlaceRef = s
	} else if pid := docstore.String(d, "place_id"); pid != "" {
		jp.PlaceRef = placePath(pid)
	}

	jp.CreatedAt, _ = docstore.Time(d, "created_at")
	jp.UpdatedAt, _ = docstore.Time(d, "updated_at")
	return jp
}

func floatPtr(d map[string]any, key string) *float64 {
	if v, ok := docstore.Float(d, key); ok {
		return &v
	}
	return nil
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
