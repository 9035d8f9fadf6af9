package geo

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean earth radius also used by the SQL haversine_km function.
const EarthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b LatLng) float64 {
	if !valid(a) || !valid(b) {
		return math.NaN()
	}
	pa := s2.LatLngFromDegrees(a.Lat, a.Lng)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return pa.Distance(pb).Radians() * EarthRadiusKm
}

// Geohash encodes ll at the library's default precision.
func Geohash(ll LatLng) string {
	return geohash.Encode(ll.Lat, ll.Lng)
}

func valid(ll LatLng) bool {
	return !math.IsNaN(ll.Lat) && !math.IsNaN(ll.Lng) &&
		!math.IsInf(ll.Lat, 0) && !math.IsInf(ll.Lng, 0)
}
