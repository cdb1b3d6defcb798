package diyanet

import (
	"bytes"
	"encoding/gob"
	"net/url"
	"sort"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

var errPageNotCached = badger.ErrKeyNotFound

// Key prefixes separating the two cache sections. Only pages and the
// country directory are persisted; states and regions are always derived
// from the (cached) listing responses.
const (
	pageKeyPrefix    = "page:"
	countryKeyPrefix = "country:"
)

// cacheStore persists raw page bodies keyed by canonical request URL and
// the resolved country directory keyed by folded country name. Entries
// never expire: a cached body is valid for the lifetime of the store.
type cacheStore struct {
	db      *badger.DB
	baseUrl *url.URL
}

// pageKey resolves endpoint against the base URL and normalizes it, so
// the key is always the full request URL regardless of how the endpoint
// was spelled.
func (c cacheStore) pageKey(endpoint string) (string, error) {
	full, err := c.baseUrl.Parse(endpoint)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return pageKeyPrefix + normalized, nil
}

func (c cacheStore) page(endpoint string) (string, error) {
	key, err := c.pageKey(endpoint)
	if err != nil {
		return "", err
	}

	var body []byte
	err = c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c cacheStore) setPage(endpoint string, body []byte) error {
	key, err := c.pageKey(endpoint)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), body)
	})
}

// countries loads the cached country directory, ascending by Idx. An
// empty result means the directory has not been resolved yet.
func (c cacheStore) countries() ([]Country, error) {
	var out []Country
	err := c.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(countryKeyPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			serialized, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var country Country
			err = gob.NewDecoder(bytes.NewReader(serialized)).Decode(&country)
			if err != nil {
				return err
			}
			out = append(out, country)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Idx < out[j].Idx
	})
	return out, nil
}

func (c cacheStore) setCountries(countries []Country) error {
	return c.db.Update(func(tx *badger.Txn) error {
		for _, country := range countries {
			serialized := bytes.NewBuffer(nil)
			if err := gob.NewEncoder(serialized).Encode(country); err != nil {
				return err
			}
			key := countryKeyPrefix + country.Name
			if err := tx.Set([]byte(key), serialized.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}
