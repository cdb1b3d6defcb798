package diyanet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"diyanet/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const homePage = `<html><body>
<select class="form-control country-select">
<option value="">Choose a country</option>
<option value="13">GERMANY</option>
<option value="2">TURKEY</option>
<option value="33">ALBANIA</option>
</select>
</body></html>`

const istanbulPage = `<html><body>
<div class="tpt-cell"><div class="tpt-title">İmsak</div><div class="tpt-time">05:12</div></div>
<div class="tpt-cell"><div class="tpt-title">Güneş</div><div class="tpt-time">06:44</div></div>
<div class="tpt-cell"><div class="tpt-title">Öğle</div><div class="tpt-time">13:07</div></div>
<div class="tpt-cell"><div class="tpt-title">İkindi</div><div class="tpt-time">16:32</div></div>
<div class="tpt-cell"><div class="tpt-title">Akşam</div><div class="tpt-time">19:21</div></div>
<div class="tpt-cell"><div class="tpt-title">Yatsı</div><div class="tpt-time">20:46</div></div>
</body></html>`

// missing Yatsı
const incompletePage = `<html><body>
<div class="tpt-title">İmsak</div><div class="tpt-time">05:12</div>
<div class="tpt-title">Güneş</div><div class="tpt-time">06:44</div>
<div class="tpt-title">Öğle</div><div class="tpt-time">13:07</div>
<div class="tpt-title">İkindi</div><div class="tpt-time">16:32</div>
<div class="tpt-title">Akşam</div><div class="tpt-time">19:21</div>
</body></html>`

const garbledPage = `<html><body>
<div class="tpt-title">İmsak</div><div class="tpt-time">soon</div>
<div class="tpt-title">Güneş</div><div class="tpt-time">06:44</div>
<div class="tpt-title">Öğle</div><div class="tpt-time">13:07</div>
<div class="tpt-title">İkindi</div><div class="tpt-time">16:32</div>
<div class="tpt-title">Akşam</div><div class="tpt-time">19:21</div>
<div class="tpt-title">Yatsı</div><div class="tpt-time">20:46</div>
</body></html>`

type fakeSite struct {
	mu   sync.Mutex
	hits map[string]int
}

func (s *fakeSite) hit(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[url]++
}

func (s *fakeSite) hitCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[url]
}

func (s *fakeSite) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hit(r.URL.String())

		switch r.URL.Path {
		case "/tr-TR/home":
			fmt.Fprint(w, homePage)
		case "/tr-TR/home/GetRegList":
			switch r.URL.Query().Get("ChangeType") {
			case "country":
				fmt.Fprint(w, `{"StateList":[
					{"SehirAdiEn":"ISTANBUL","SehirID":539},
					{"SehirAdiEn":"ANKARA","SehirID":506}
				]}`)
			case "state":
				fmt.Fprint(w, `{"StateRegionList":[
					{"IlceAdiEn":"ISTANBUL","IlceID":9541,"IlceUrl":"/tr-TR/9541/istanbul-icin-namaz-vakti"},
					{"IlceAdiEn":"SILIVRI","IlceID":9577,"IlceUrl":"/tr-TR/9577/silivri-icin-namaz-vakti"}
				]}`)
			default:
				http.Error(w, "bad ChangeType", http.StatusBadRequest)
			}
		case "/tr-TR/9541/istanbul-icin-namaz-vakti":
			fmt.Fprint(w, istanbulPage)
		case "/tr-TR/9577/silivri-icin-namaz-vakti":
			fmt.Fprint(w, incompletePage)
		case "/tr-TR/9000/garbled":
			fmt.Fprint(w, garbledPage)
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestClient(t *testing.T, db *badger.DB) (*Client, *fakeSite) {
	site := &fakeSite{hits: map[string]int{}}
	server := httptest.NewServer(site.handler())
	t.Cleanup(server.Close)

	if db == nil {
		var err error
		db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { db.Close() })
	}

	client, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: server.URL,
		Cache:   db,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, site
}

func TestNewClientRequiresCache(t *testing.T) {
	_, err := NewClient(context.Background(), ClientOptions{
		BaseUrl: DefaultBaseUrl,
	})
	require.Error(t, err)
}

func TestCountriesSortedByIdx(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/diyanet")
	defer cleanup()

	client, _ := newTestClient(t, nil)

	countries, err := client.Countries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Country{
		{Name: "turkey", Idx: 2},
		{Name: "germany", Idx: 13},
		{Name: "albania", Idx: 33},
	}, countries)
}

func TestFindCountryCaseInsensitive(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	upper, err := client.FindCountry(ctx, "TURKEY")
	require.NoError(t, err)
	lower, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)

	require.Equal(t, upper, lower)
	require.Equal(t, Country{Name: "turkey", Idx: 2}, upper)
}

func TestFindCountryNotFound(t *testing.T) {
	client, _ := newTestClient(t, nil)

	_, err := client.FindCountry(context.Background(), "Atlantis")
	require.Error(t, err)

	var nfErr NotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, KindCountry, nfErr.Kind)
	require.Equal(t, "Atlantis", nfErr.Name)
}

func TestFindCountrySuggestion(t *testing.T) {
	client, _ := newTestClient(t, nil)

	_, err := client.FindCountry(context.Background(), "turkei")
	var nfErr NotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, "turkey", nfErr.Suggestion)
}

func TestStatesCarryCountry(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)

	states, err := client.States(ctx, country)
	require.NoError(t, err)
	require.Len(t, states, 2)
	// remote order is preserved, not re-sorted
	require.Equal(t, State{Name: "ISTANBUL", Idx: 539, Country: country}, states[0])
	require.Equal(t, State{Name: "ANKARA", Idx: 506, Country: country}, states[1])
}

func TestFindRegionBackReferences(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "Turkey")
	require.NoError(t, err)
	state, err := client.FindState(ctx, country, "Istanbul")
	require.NoError(t, err)
	region, err := client.FindRegion(ctx, state, "istanbul")
	require.NoError(t, err)

	require.Equal(t, "ISTANBUL", region.Name)
	require.Equal(t, 9541, region.Idx)
	require.Equal(t, "/tr-TR/9541/istanbul-icin-namaz-vakti", region.Url)
	require.Equal(t, state, region.State)
	require.Equal(t, region.Country, region.State.Country)
}

func TestFindStateNotFound(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)

	_, err = client.FindState(ctx, country, "Gotham")
	var nfErr NotFoundError
	require.ErrorAs(t, err, &nfErr)
	require.Equal(t, KindState, nfErr.Kind)
	require.Equal(t, "Gotham", nfErr.Name)
}

func TestPrayerTimes(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)
	state, err := client.FindState(ctx, country, "istanbul")
	require.NoError(t, err)
	region, err := client.FindRegion(ctx, state, "istanbul")
	require.NoError(t, err)

	times, err := client.PrayerTimes(ctx, region)
	require.NoError(t, err)
	require.Equal(t, PrayerTimes{
		Fajr:    Clock{Hour: 5, Minute: 12},
		Sunrise: Clock{Hour: 6, Minute: 44},
		Dhuhr:   Clock{Hour: 13, Minute: 7},
		Asr:     Clock{Hour: 16, Minute: 32},
		Maghrib: Clock{Hour: 19, Minute: 21},
		Isha:    Clock{Hour: 20, Minute: 46},
	}, times)
}

func TestPrayerTimesIncompleteSchedule(t *testing.T) {
	client, _ := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)
	state, err := client.FindState(ctx, country, "istanbul")
	require.NoError(t, err)
	region, err := client.FindRegion(ctx, state, "silivri")
	require.NoError(t, err)

	_, err = client.PrayerTimes(ctx, region)
	var parseErr ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestPrayerTimesBadValue(t *testing.T) {
	client, _ := newTestClient(t, nil)

	_, err := client.PrayerTimes(context.Background(), Region{
		Name: "garbled",
		Idx:  9000,
		Url:  "/tr-TR/9000/garbled",
	})
	var tfErr TimeFormatError
	require.ErrorAs(t, err, &tfErr)
	require.Equal(t, "soon", tfErr.Value)
}

func TestFetchIdempotence(t *testing.T) {
	client, site := newTestClient(t, nil)
	ctx := context.Background()

	country, err := client.FindCountry(ctx, "turkey")
	require.NoError(t, err)

	first, err := client.States(ctx, country)
	require.NoError(t, err)
	second, err := client.States(ctx, country)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, site.hitCount("/tr-TR/home/GetRegList?ChangeType=country&CountryId=2"))
	require.Equal(t, 1, site.hitCount("/tr-TR/home"))
}

func TestCountryDirectorySurvivesRestart(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	client, site := newTestClient(t, db)
	ctx := context.Background()

	_, err = client.FindCountry(ctx, "turkey")
	require.NoError(t, err)
	require.Equal(t, 1, site.hitCount("/tr-TR/home"))

	// a second client sharing the store never touches the home page
	reopened, site2 := newTestClient(t, db)
	country, err := reopened.FindCountry(ctx, "turkey")
	require.NoError(t, err)
	require.Equal(t, Country{Name: "turkey", Idx: 2}, country)
	require.Equal(t, 0, site2.hitCount("/tr-TR/home"))
}

func TestFetchError(t *testing.T) {
	client, _ := newTestClient(t, nil)

	_, err := client.fetch(context.Background(), "/nope", nil)
	require.Error(t, err)

	var fetchErr FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Contains(t, fetchErr.Url, "/nope")
}
