package places

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/apperrors"
	"io.winapps.tripjournal/internal/docstore"
	"io.winapps.tripjournal/internal/journals"
	"io.winapps.tripjournal/internal/models/trip"
)

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, journalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, journalID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

type fixture struct {
	store    *docstore.Memory
	journals *journals.Repository
	places   *Repository
	inv      *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemory()
	inv := &recordingInvalidator{}
	logger := zap.NewNop().Sugar()
	return &fixture{
		store:    store,
		journals: journals.NewRepository(store, inv, journals.Defaults{Currency: "🇲🇾 MYR"}, logger),
		places:   NewRepository(store, inv, logger),
		inv:      inv,
	}
}

func (f *fixture) journal(t *testing.T, start string, days int) string {
	t.Helper()
	id, err := f.journals.Create(context.Background(), journals.NewJournal{UserID: "u1", Title: "Trip", StartDate: start, Days: days})
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T { return &v }

func TestPlaceID(t *testing.T) {
	a := PlaceID(Input{Name: "Kek Lok Si", Address: "Air Itam, Penang"})
	b := PlaceID(Input{Name: "  kek  lok si ", Address: "AIR ITAM,   penang"})
	c := PlaceID(Input{Name: "Kek Lok Si", Address: "Somewhere else"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
	assert.Equal(t, "ChIJ_abc", PlaceID(Input{ExternalID: " ChIJ/abc ", Name: "x", Address: "y"}))
}

func TestAddPlaceDedupesCanonicalPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	j1 := f.journal(t, "2024-03-01", 3)
	j2 := f.journal(t, "2024-05-01", 2)

	in := Input{ExternalID: "gp-1", Name: "Kek Lok Si", Address: "Air Itam", Date: "2024-03-02", Notes: "sunrise"}
	_, err := f.places.AddPlace(ctx, j1, in)
	require.NoError(t, err)

	in.Name = "Different name, same external id"
	in.Date = "2024-05-01"
	_, err = f.places.AddPlace(ctx, j2, in)
	require.NoError(t, err)

	snaps, err := f.store.Query(ctx, docstore.Query{Collection: Collection})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "gp-1", snaps[0].ID())
	assert.Equal(t, "Kek Lok Si", docstore.String(snaps[0].Data, "name"), "first writer wins")

	for _, jid := range []string{j1, j2} {
		list, err := f.places.ListPlaces(ctx, jid)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "places/gp-1", list[0].PlaceRef)
	}
}

func TestAddPlaceConcurrentDedupe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 3)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.places.AddPlace(ctx, jid, Input{Name: "Hawker Centre", Address: "Gurney Drive", Date: "2024-03-01"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snaps, err := f.store.Query(ctx, docstore.Query{Collection: Collection})
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	list, err := f.places.ListPlaces(ctx, jid)
	require.NoError(t, err)
	require.Len(t, list, 10)
	orders := make(map[int]bool)
	for _, jp := range list {
		orders[jp.Order] = true
	}
	assert.Len(t, orders, 10, "transactional adds get distinct orders")
}

func TestAddPlaceOrderAndUnscheduled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 3)

	_, err := f.places.AddPlace(ctx, jid, Input{Name: "A", Address: "a", Date: "2024-03-01"})
	require.NoError(t, err)
	id2, err := f.places.AddPlace(ctx, jid, Input{Name: "B", Address: "b", Date: "2024-03-01T10:00:00"})
	require.NoError(t, err)
	id3, err := f.places.AddPlace(ctx, jid, Input{Name: "C", Address: "c"})
	require.NoError(t, err)

	list, err := f.places.ListPlaces(ctx, jid)
	require.NoError(t, err)
	byID := make(map[string]trip.JournalPlace)
	for _, jp := range list {
		byID[jp.ID] = jp
	}
	assert.Equal(t, 2, byID[id2].Order)
	assert.Equal(t, "2024-03-01", byID[id2].Date)
	assert.Equal(t, trip.UnscheduledDate, byID[id3].Date)
	assert.Equal(t, 1, byID[id3].Order)
	assert.Equal(t, 4, f.inv.count())
}

func TestAddPlaceValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 3)

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing name", Input{Address: "a", Date: "2024-03-01"}, "name"},
		{"missing address", Input{Name: "a", Date: "2024-03-01"}, "address"},
		{"before range", Input{Name: "a", Address: "a", Date: "2024-02-29"}, "date"},
		{"after range", Input{Name: "a", Address: "a", Date: "2024-03-04"}, "date"},
		{"bad rating", Input{Name: "a", Address: "a", Rating: ptr(6.0)}, "rating"},
		{"negative cost", Input{Name: "a", Address: "a", Cost: ptr(-1.0)}, "cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.places.AddPlace(ctx, jid, tt.in)
			require.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.field, apperrors.Fields(err)[0].Field)
		})
	}

	_, err := f.places.AddPlace(ctx, "missing", Input{Name: "a", Address: "a"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	snaps, _ := f.store.Query(ctx, docstore.Query{Collection: Collection})
	assert.Empty(t, snaps, "failed adds leave no canonical place behind")
}

func TestUpdatePlaceTouchesOnlyOverlay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 3)
	jpID, err := f.places.AddPlace(ctx, jid, Input{ExternalID: "gp-2", Name: "Museum", Address: "Lebuh", Date: "2024-03-01"})
	require.NoError(t, err)

	err = f.places.UpdatePlace(ctx, jid, jpID, VisitUpdate{
		Date:         ptr("2024-03-03"),
		Notes:        ptr("closed on mondays"),
		Name:         ptr("Museum (my name)"),
		Friendliness: ptr([]string{"kids"}),
	})
	require.NoError(t, err)

	list, _ := f.places.ListPlaces(ctx, jid)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-03-03", list[0].Date)
	assert.Equal(t, "closed on mondays", list[0].Notes)
	assert.Equal(t, "Museum (my name)", list[0].Name)
	assert.Equal(t, []string{"kids"}, list[0].Friendliness)

	place, err := f.places.GetPlace(ctx, "gp-2")
	require.NoError(t, err)
	assert.Equal(t, "Museum", place.Name)

	err = f.places.UpdatePlace(ctx, jid, jpID, VisitUpdate{Date: ptr("2024-04-01")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	err = f.places.UpdatePlace(ctx, jid, jpID, VisitUpdate{Order: ptr(-2)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	err = f.places.UpdatePlace(ctx, jid, "missing", VisitUpdate{Notes: ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, f.places.UpdatePlace(ctx, jid, jpID, VisitUpdate{Date: ptr("")}))
	list, _ = f.places.ListPlaces(ctx, jid)
	assert.Equal(t, trip.UnscheduledDate, list[0].Date)
}

func TestDeletePlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 1)
	jpID, err := f.places.AddPlace(ctx, jid, Input{Name: "A", Address: "a", Date: "2024-03-01"})
	require.NoError(t, err)

	require.NoError(t, f.places.DeletePlace(ctx, jid, jpID))
	list, _ := f.places.ListPlaces(ctx, jid)
	assert.Empty(t, list)
	assert.ErrorIs(t, f.places.DeletePlace(ctx, jid, jpID), apperrors.ErrNotFound)

	snaps, _ := f.store.Query(ctx, docstore.Query{Collection: Collection})
	assert.Len(t, snaps, 1)
}

func TestDeletePlacesOutsideRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 5)

	keep := []string{"2024-03-02", "2024-03-03", trip.UnscheduledDate}
	drop := []string{"2024-03-01", "2024-03-05"}
	for i, d := range append(append([]string{}, keep...), drop...) {
		_, err := f.places.AddPlace(ctx, jid, Input{Name: fmt.Sprintf("P%d", i), Address: "x", Date: d})
		require.NoError(t, err)
	}
	require.NoError(t, f.store.Set(ctx, docstore.Path(journals.PlacesPath(jid), "odd"), map[string]any{"date": "sometime"}))

	removed, err := f.places.DeletePlacesOutsideRange(ctx, jid, "2024-03-02", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err := f.places.ListPlaces(ctx, jid)
	require.NoError(t, err)
	var dates []string
	for _, jp := range list {
		dates = append(dates, jp.Date)
	}
	assert.ElementsMatch(t, append(keep, "sometime"), dates)

	_, err = f.places.DeletePlacesOutsideRange(ctx, jid, "2024-03-04", "2024-03-02")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSavePlacesBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 3)
	_, err := f.places.AddPlace(ctx, jid, Input{Name: "Existing", Address: "x", Date: "2024-03-01"})
	require.NoError(t, err)

	ids, err := f.places.SavePlacesBatch(ctx, jid, []Input{
		{Name: "Fort", Address: "George Town", Date: "2024-03-01"},
		{Name: "Fort", Address: "George Town", Date: "2024-03-02"},
		{Name: "Beach", Address: "Batu Ferringhi", Date: "2024-03-01"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	list, _ := f.places.ListPlaces(ctx, jid)
	require.Len(t, list, 4)
	byID := make(map[string]trip.JournalPlace)
	for _, jp := range list {
		byID[jp.ID] = jp
	}
	assert.Equal(t, 2, byID[ids[0]].Order)
	assert.Equal(t, 1, byID[ids[1]].Order)
	assert.Equal(t, 3, byID[ids[2]].Order)
	assert.Equal(t, byID[ids[0]].PlaceRef, byID[ids[1]].PlaceRef)

	canonical, _ := f.store.Query(ctx, docstore.Query{Collection: Collection})
	assert.Len(t, canonical, 3)
}

func TestSavePlacesBatchFailsWhole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	jid := f.journal(t, "2024-03-01", 2)
	before := f.inv.count()

	_, err := f.places.SavePlacesBatch(ctx, jid, []Input{
		{Name: "Good", Address: "x", Date: "2024-03-01"},
		{Name: "", Address: "x", Date: "2024-03-01"},
		{Name: "Late", Address: "y", Date: "2024-03-09"},
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	fields := apperrors.Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "places[1].name", fields[0].Field)
	assert.Equal(t, "places[2].date", fields[1].Field)

	list, _ := f.places.ListPlaces(ctx, jid)
	assert.Empty(t, list)
	canonical, _ := f.store.Query(ctx, docstore.Query{Collection: Collection})
	assert.Empty(t, canonical)
	assert.Equal(t, before, f.inv.count())

	_, err = f.places.SavePlacesBatch(ctx, jid, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.places.SavePlacesBatch(ctx, "missing", []Input{{Name: "a", Address: "b"}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDecodeLegacyVisits(t *testing.T) {
	embedded := DecodeEmbedded("j1", []map[string]any{
		{"name": "Inline", "address": "Somewhere", "date": "2024-03-01T00:00:00"},
		{"id": "keep-me", "place_id": "gp-9", "date": trip.UnscheduledDate},
		{"place_ref": "places/gp-7"},
	})
	require.Len(t, embedded, 3)
	assert.Equal(t, "embedded-0", embedded[0].ID)
	assert.Equal(t, "", embedded[0].PlaceRef)
	assert.Equal(t, "2024-03-01", embedded[0].Date)
	assert.Equal(t, "keep-me", embedded[1].ID)
	assert.Equal(t, "places/gp-9", embedded[1].PlaceRef)
	assert.Equal(t, trip.UnscheduledDate, embedded[1].Date)
	assert.Equal(t, "places/gp-7", embedded[2].PlaceRef)
}
