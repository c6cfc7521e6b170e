package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/calendar"
	"github.com/drewfead/cip/internal/core"
	"github.com/drewfead/cip/internal/store"
)

var (
	paris = calendar.FixedOffset(2)
	cal   = calendar.New(paris, calendar.DefaultDayStart, time.Date(2024, 6, 1, 12, 0, 0, 0, paris))

	champo   = core.Cinema{ID: 1, Name: "Le Champo", URLPath: "/cinema/le-champo", Address: "51 rue des Écoles 75005 Paris", ImagePath: "/img/champo.jpg"}
	action   = core.Cinema{ID: 2, Name: "Le Grand Action", URLPath: "/cinema/grand-action", Address: "5 rue des Écoles 75005 Paris", ImagePath: "/img/action.jpg"}
	playtime = core.Film{ID: 1, Name: "Playtime", URLPath: "/film/playtime", ImagePath: "/img/playtime.jpg", Director: "Jacques Tati", ReleaseDate: "1967"}
	monOncle = core.Film{ID: 2, Name: "Mon Oncle", URLPath: "/film/mon-oncle", ImagePath: "/img/oncle.jpg", ReleaseDate: "1958"}
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, paris)
}

func ptr(s string) *string {
	return &s
}

func openStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "cip.db")
	s, err := store.Open(store.DriverSQLite, path, paris)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func seanceIDs(results []core.QueryResult) []uint64 {
	ids := make([]uint64, len(results))
	for i, r := range results {
		ids[i] = r.Seance.ID
	}
	return ids
}

func Test_Unit_QueryDayScenario(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx,
		[]core.Cinema{champo},
		[]core.Film{playtime},
		[]core.Seance{
			{ID: 1, CinemaID: 1, FilmID: 1, At: at(10, 22, 30), Version: "VO"},
			{ID: 2, CinemaID: 1, FilmID: 1, At: at(10, 20, 0), Version: "VF", URL: ptr("https://tickets.example.org/2")},
		},
	))

	f, err := store.ParseFilter("10/06", "", false, false, cal)
	require.NoError(t, err)
	results, err := s.Query(ctx, f, cal)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []uint64{2, 1}, seanceIDs(results))
	assert.True(t, at(10, 20, 0).Equal(results[0].Seance.At))
	assert.Equal(t, "https://tickets.example.org/2", *results[0].Seance.URL)
	assert.Nil(t, results[1].Seance.URL)
	assert.Equal(t, champo, results[0].Cinema)
	assert.Equal(t, playtime, results[0].Film)

	f, err = store.ParseFilter("10/06", "", true, false, cal)
	require.NoError(t, err)
	results, err = s.Query(ctx, f, cal)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "VO", results[0].Seance.Version)
	assert.True(t, at(10, 22, 30).Equal(results[0].Seance.At))
}

func Test_Unit_QueryWindowBoundaries(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	seances := []core.Seance{
		{ID: 1, CinemaID: 1, FilmID: 1, At: at(10, 3, 59), Version: "VO"},
		{ID: 2, CinemaID: 1, FilmID: 1, At: at(10, 4, 0), Version: "VO"},
		{ID: 3, CinemaID: 1, FilmID: 1, At: at(10, 23, 30), Version: "VF"},
		{ID: 4, CinemaID: 1, FilmID: 1, At: at(11, 1, 15), Version: "VO"},
		{ID: 5, CinemaID: 1, FilmID: 1, At: at(11, 4, 0), Version: "VO"},
		{ID: 6, CinemaID: 1, FilmID: 1, At: at(11, 4, 1), Version: "VO"},
	}
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, seances))

	tests := []struct {
		name   string
		day    string
		clock  string
		vo, vf bool
		expect []uint64
	}{
		{name: "no filter returns everything", expect: []uint64{1, 2, 3, 4, 5, 6}},
		{name: "day only", day: "10/06", expect: []uint64{2, 3, 4, 5}},
		{name: "day and time", day: "10/06", clock: "20:00", expect: []uint64{3, 4, 5}},
		{name: "late time", day: "10/06", clock: "23:31", expect: []uint64{4, 5}},
		{name: "previous day window catches early screening", day: "09/06", expect: []uint64{1}},
		{name: "vf only", day: "10/06", vf: true, expect: []uint64{3}},
		{name: "vo only without window", vo: true, expect: []uint64{1, 2, 4, 5, 6}},
		{name: "both flags", day: "10/06", vo: true, vf: true, expect: []uint64{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := store.ParseFilter(tt.day, tt.clock, tt.vo, tt.vf, cal)
			require.NoError(t, err)
			results, err := s.Query(ctx, f, cal)
			require.NoError(t, err)
			if len(tt.expect) == 0 {
				assert.Empty(t, results)
				return
			}
			assert.Equal(t, tt.expect, seanceIDs(results))

			if w, ok := f.Window(cal); ok {
				for _, r := range results {
					assert.True(t, w.Contains(r.Seance.At), "seance %d outside window", r.Seance.ID)
				}
			}
			if tt.vo && !tt.vf {
				for _, r := range results {
					assert.Equal(t, "VO", r.Seance.Version)
				}
			}
		})
	}
}

func Test_Unit_QueryTimeWithoutDayUsesToday(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, []core.Seance{
		{ID: 1, CinemaID: 1, FilmID: 1, At: time.Date(2024, 6, 1, 18, 0, 0, 0, paris), Version: "VO"},
		{ID: 2, CinemaID: 1, FilmID: 1, At: time.Date(2024, 6, 1, 21, 0, 0, 0, paris), Version: "VO"},
		{ID: 3, CinemaID: 1, FilmID: 1, At: time.Date(2024, 6, 2, 21, 0, 0, 0, paris), Version: "VO"},
	}))

	f, err := store.ParseFilter("", "20:00", false, false, cal)
	require.NoError(t, err)
	results, err := s.Query(ctx, f, cal)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, seanceIDs(results))
}

func Test_Unit_QueryStableOrderForEqualTimes(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx,
		[]core.Cinema{champo, action},
		[]core.Film{playtime, monOncle},
		[]core.Seance{
			{ID: 3, CinemaID: 2, FilmID: 1, At: at(10, 20, 0), Version: "VO"},
			{ID: 1, CinemaID: 1, FilmID: 2, At: at(10, 20, 0), Version: "VF"},
			{ID: 2, CinemaID: 1, FilmID: 1, At: at(10, 20, 0), Version: "VO"},
		},
	))

	for i := 0; i < 3; i++ {
		results, err := s.Query(ctx, store.Filter{}, cal)
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2, 3}, seanceIDs(results))
	}
}

func Test_Unit_ReplaceDiscardsPreviousRun(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, []core.Seance{
		{ID: 1, CinemaID: 1, FilmID: 1, At: at(10, 20, 0), Version: "VO"},
		{ID: 2, CinemaID: 1, FilmID: 1, At: at(10, 22, 0), Version: "VO"},
	}))
	require.NoError(t, s.Replace(ctx, []core.Cinema{action}, []core.Film{monOncle}, []core.Seance{
		{ID: 1, CinemaID: 2, FilmID: 2, At: at(12, 18, 0), Version: "VF"},
	}))

	results, err := s.Query(ctx, store.Filter{}, cal)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Le Grand Action", results[0].Cinema.Name)
	assert.Equal(t, "Mon Oncle", results[0].Film.Name)
}

func Test_Unit_ReplaceIsAtomic(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, []core.Seance{
		{ID: 1, CinemaID: 1, FilmID: 1, At: at(10, 20, 0), Version: "VO"},
	}))

	err := s.Replace(ctx, []core.Cinema{action}, []core.Film{monOncle}, []core.Seance{
		{ID: 1, CinemaID: 2, FilmID: 99, At: at(12, 18, 0), Version: "VF"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &apperrors.PersistenceError{}))

	results, err := s.Query(ctx, store.Filter{}, cal)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Le Champo", results[0].Cinema.Name)
}

func Test_Unit_SeanceLookup(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, []core.Seance{
		{ID: 7, CinemaID: 1, FilmID: 1, At: at(10, 20, 0).UTC(), Version: "VO", URL: ptr("https://tickets.example.org/7")},
	}))

	result, err := s.Seance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), result.Seance.ID)
	assert.Equal(t, "Playtime", result.Film.Name)
	assert.Equal(t, "https://tickets.example.org/7", *result.Seance.URL)

	// Stored in the store's offset regardless of the zone it was written with.
	_, offset := result.Seance.At.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.True(t, at(10, 20, 0).Equal(result.Seance.At))

	_, err = s.Seance(ctx, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &apperrors.NotFoundError{}))
}

func Test_Unit_Delete(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Replace(ctx, []core.Cinema{champo}, []core.Film{playtime}, nil))
	require.NoError(t, s.Close())

	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, store.DriverSQLite, path))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, store.Delete(ctx, store.DriverSQLite, path))
}

func Test_Unit_OpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open("oracle", "whatever", paris)
	assert.True(t, errors.Is(err, &apperrors.PersistenceError{}))
}
