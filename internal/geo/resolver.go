// Package geo resolves US ZIP codes to centroid coordinates from a local
// GeoNames-style TSV dataset and computes great-circle distances.
package geo

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Resolver answers ZIP centroid lookups from a dataset loaded lazily on first
// use. The zero value is not usable; construct with NewResolver.
type Resolver struct {
	path string
	log  zerolog.Logger

	once    sync.Once
	entries map[string]LatLng
}

// NewResolver returns a resolver over the TSV file at path. The file is not
// read until the first lookup.
func NewResolver(path string, log zerolog.Logger) *Resolver {
	return &Resolver{path: path, log: log.With().Str("component", "zip_resolver").Logger()}
}

// Resolve returns the centroid for zip, or false when unknown or invalid.
func (r *Resolver) Resolve(zip string) (LatLng, bool) {
	z, ok := NormalizeZip(zip)
	if !ok {
		return LatLng{}, false
	}
	r.load()
	ll, ok := r.entries[z]
	return ll, ok
}

// ResolveBatch looks up many ZIPs at once. Keys are the normalized ZIPs;
// unknown ZIPs map to nil and invalid inputs are omitted.
func (r *Resolver) ResolveBatch(zips []string) map[string]*LatLng {
	r.load()
	out := make(map[string]*LatLng, len(zips))
	hits := 0
	for _, zip := range zips {
		z, ok := NormalizeZip(zip)
		if !ok {
			continue
		}
		if ll, found := r.entries[z]; found {
			out[z] = &ll
			hits++
			continue
		}
		if _, seen := out[z]; !seen {
			out[z] = nil
		}
	}
	r.log.Debug().Int("hits", hits).Int("total", len(out)).Msg("geocoded batch")
	return out
}

// Len reports how many centroids are loaded, loading the dataset if needed.
func (r *Resolver) Len() int {
	r.load()
	return len(r.entries)
}

// Each calls fn for every loaded centroid in unspecified order.
func (r *Resolver) Each(fn func(zip string, ll LatLng)) {
	r.load()
	for z, ll := range r.entries {
		fn(z, ll)
	}
}

func (r *Resolver) load() {
	r.once.Do(func() {
		r.entries = map[string]LatLng{}
		f, err := os.Open(r.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				r.log.Warn().Str("path", r.path).Msg("ZIP centroid file not found; all lookups will miss")
			} else {
				r.log.Warn().Err(err).Str("path", r.path).Msg("cannot open ZIP centroid file")
			}
			return
		}
		defer f.Close()

		entries, err := parseCentroids(f)
		if err != nil {
			r.log.Warn().Err(err).Str("path", r.path).Msg("ZIP centroid file read stopped early")
		}
		r.entries = entries
		r.log.Info().Int("count", len(entries)).Msgf("loaded %d ZIP centroids", len(entries))
	})
}

// parseCentroids reads GeoNames postal-code lines:
// country, zip, place, admin..., lat, lng, accuracy.
// Malformed lines are skipped; a repeated ZIP keeps its last line.
func parseCentroids(rd io.Reader) (map[string]LatLng, error) {
	entries := map[string]LatLng{}
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 6 {
			continue
		}
		zip, ok := NormalizeZip(cols[1])
		if !ok {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(cols[len(cols)-3]), 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(cols[len(cols)-2]), 64)
		if err != nil {
			continue
		}
		entries[zip] = LatLng{Lat: lat, Lng: lng}
	}
	return entries, sc.Err()
}

// NormalizeZip trims the input and keeps its first five characters, which
// must all be digits.
func NormalizeZip(zip string) (string, bool) {
	z := strings.TrimSpace(zip)
	if len(z) < 5 {
		return "", false
	}
	z = z[:5]
	for i := 0; i < len(z); i++ {
		if z[i] < '0' || z[i] > '9' {
			return "", false
		}
	}
	return z, true
}
