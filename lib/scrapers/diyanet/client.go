package diyanet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"diyanet/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseUrl = "https://namazvakitleri.diyanet.gov.tr"

const (
	homeEndpoint    = "/tr-TR/home"
	regListEndpoint = "/tr-TR/home/GetRegList"

	countrySelectClass = "country-select"
)

// Client resolves the remote site's country/state/region hierarchy and
// reads prayer-time schedules from it. Every request goes through the
// persistent page cache; the remote is only contacted for URLs never
// seen by the cache's store.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	cache   cacheStore
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// per-request timeout, defaults to 30s. requests still block the
	// caller until the response or the timeout.
	Timeout time.Duration
	Cache   *badger.DB
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.Cache == nil {
		return nil, errors.New("a cache store is required")
	}
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "scrapers/diyanet/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		cache: cacheStore{
			db:      opts.Cache,
			baseUrl: baseUrl,
		},
	}, nil
}

// fetch returns the body at endpoint?query, from the page cache when the
// canonical URL has been requested before. query keys are encoded in
// sorted order so the same parameters always produce the same URL.
func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) (string, error) {
	ctx, span := tracer.Start(ctx, "client:fetch")
	defer span.End()

	target := endpoint
	if len(query) > 0 {
		target = endpoint + "?" + query.Encode()
	}
	span.SetAttributes(attribute.String("url", target))

	body, err := c.cache.page(target)
	if err == nil {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return body, nil
	}
	if err != errPageNotCached {
		span.RecordError(err)
		span.AddEvent("CACHE ERROR", trace.WithAttributes(
			attribute.String("log.severity", "WARN"),
		))
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return "", FetchError{Url: c.canonicalUrl(target), Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status: %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return "", FetchError{Url: c.canonicalUrl(target), Err: err}
	}

	err = c.cache.setPage(target, res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cache request")
	}

	return string(res.Body()), nil
}

func (c *Client) canonicalUrl(endpoint string) string {
	full, err := c.BaseUrl.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	return full.String()
}

// Countries returns the country directory, ascending by Idx. The
// directory is scraped from the home page once and then served from the
// persistent cache across process runs.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	ctx, span := tracer.Start(ctx, "client:Countries")
	defer span.End()

	cached, err := c.cache.countries()
	if err != nil {
		span.RecordError(err)
		span.AddEvent("CACHE ERROR", trace.WithAttributes(
			attribute.String("log.severity", "WARN"),
		))
	}
	if len(cached) > 0 {
		span.SetStatus(codes.Ok, "CACHE HIT")
		return cached, nil
	}

	page, err := c.fetch(ctx, homeEndpoint, nil)
	if err != nil {
		return nil, err
	}

	options := extractOptions(page, countrySelectClass)
	countries := make([]Country, len(options))
	for i, o := range options {
		countries[i] = Country{Name: o.label, Idx: o.idx}
	}

	err = c.cache.setCountries(countries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cache country directory")
	}

	return countries, nil
}

// FindCountry matches name against the country directory, ignoring case.
func (c *Client) FindCountry(ctx context.Context, name string) (Country, error) {
	ctx, span := tracer.Start(ctx, "client:FindCountry")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	countries, err := c.Countries(ctx)
	if err != nil {
		return Country{}, err
	}

	names := make([]string, len(countries))
	for i, country := range countries {
		if strings.EqualFold(country.Name, name) {
			return country, nil
		}
		names[i] = country.Name
	}

	err = NotFoundError{Kind: KindCountry, Name: name, Suggestion: closestName(name, names)}
	span.SetStatus(codes.Error, err.Error())
	return Country{}, err
}

type stateListResponse struct {
	StateList []struct {
		SehirAdiEn string `json:"SehirAdiEn"`
		SehirID    int    `json:"SehirID"`
	} `json:"StateList"`
}

// States fetches the states of a country. States are built fresh on
// every call; only the underlying JSON body is cached.
func (c *Client) States(ctx context.Context, country Country) ([]State, error) {
	ctx, span := tracer.Start(ctx, "client:States")
	defer span.End()
	span.SetAttributes(attribute.Int("country_id", country.Idx))

	body, err := c.fetch(ctx, regListEndpoint, url.Values{
		"ChangeType": {"country"},
		"CountryId":  {strconv.Itoa(country.Idx)},
	})
	if err != nil {
		return nil, err
	}

	var decoded stateListResponse
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode state list")
		return nil, ParseError{Reason: fmt.Sprintf("state list: %s", err)}
	}

	states := make([]State, len(decoded.StateList))
	for i, s := range decoded.StateList {
		states[i] = State{Name: s.SehirAdiEn, Idx: s.SehirID, Country: country}
	}
	return states, nil
}

type regionListResponse struct {
	StateRegionList []struct {
		IlceAdiEn string `json:"IlceAdiEn"`
		IlceID    int    `json:"IlceID"`
		IlceUrl   string `json:"IlceUrl"`
	} `json:"StateRegionList"`
}

// Regions fetches the regions of a state.
func (c *Client) Regions(ctx context.Context, state State) ([]Region, error) {
	ctx, span := tracer.Start(ctx, "client:Regions")
	defer span.End()
	span.SetAttributes(
		attribute.Int("country_id", state.Country.Idx),
		attribute.Int("state_id", state.Idx),
	)

	body, err := c.fetch(ctx, regListEndpoint, url.Values{
		"ChangeType": {"state"},
		"CountryId":  {strconv.Itoa(state.Country.Idx)},
		"StateId":    {strconv.Itoa(state.Idx)},
	})
	if err != nil {
		return nil, err
	}

	var decoded regionListResponse
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode region list")
		return nil, ParseError{Reason: fmt.Sprintf("region list: %s", err)}
	}

	regions := make([]Region, len(decoded.StateRegionList))
	for i, r := range decoded.StateRegionList {
		regions[i] = Region{
			Name:    r.IlceAdiEn,
			Idx:     r.IlceID,
			Url:     r.IlceUrl,
			Country: state.Country,
			State:   state,
		}
	}
	return regions, nil
}

// FindState matches name against the states of country, ignoring case.
// The first match in remote order wins.
func (c *Client) FindState(ctx context.Context, country Country, name string) (State, error) {
	ctx, span := tracer.Start(ctx, "client:FindState")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	states, err := c.States(ctx, country)
	if err != nil {
		return State{}, err
	}

	names := make([]string, len(states))
	for i, state := range states {
		if strings.EqualFold(state.Name, name) {
			return state, nil
		}
		names[i] = state.Name
	}

	err = NotFoundError{Kind: KindState, Name: name, Suggestion: closestName(name, names)}
	span.SetStatus(codes.Error, err.Error())
	return State{}, err
}

// FindRegion matches name against the regions of state, ignoring case.
func (c *Client) FindRegion(ctx context.Context, state State, name string) (Region, error) {
	ctx, span := tracer.Start(ctx, "client:FindRegion")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	regions, err := c.Regions(ctx, state)
	if err != nil {
		return Region{}, err
	}

	names := make([]string, len(regions))
	for i, region := range regions {
		if strings.EqualFold(region.Name, name) {
			return region, nil
		}
		names[i] = region.Name
	}

	err = NotFoundError{Kind: KindRegion, Name: name, Suggestion: closestName(name, names)}
	span.SetStatus(codes.Error, err.Error())
	return Region{}, err
}

// The six labels of a complete schedule, in schedule order.
var prayerLabels = []string{"İmsak", "Güneş", "Öğle", "İkindi", "Akşam", "Yatsı"}

// PrayerTimes scrapes the schedule from a region's own page. The page
// must carry all six labels; a missing label means an incomplete
// schedule and is reported as a ParseError.
func (c *Client) PrayerTimes(ctx context.Context, region Region) (PrayerTimes, error) {
	ctx, span := tracer.Start(ctx, "client:PrayerTimes")
	defer span.End()
	span.SetAttributes(attribute.String("url", region.Url))

	page, err := c.fetch(ctx, region.Url, nil)
	if err != nil {
		return PrayerTimes{}, err
	}

	found := map[string]string{}
	for _, entry := range extractPrayerTimes(page) {
		found[entry.label] = entry.value
	}

	var clocks [6]Clock
	for i, label := range prayerLabels {
		raw, ok := found[label]
		if !ok {
			err := ParseError{Reason: fmt.Sprintf("schedule is missing %q", label)}
			span.SetStatus(codes.Error, err.Error())
			return PrayerTimes{}, err
		}
		clock, err := ParseClock(raw)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to parse time of day")
			return PrayerTimes{}, err
		}
		clocks[i] = clock
	}

	return PrayerTimes{
		Fajr:    clocks[0],
		Sunrise: clocks[1],
		Dhuhr:   clocks[2],
		Asr:     clocks[3],
		Maghrib: clocks[4],
		Isha:    clocks[5],
	}, nil
}
