package store

import "math"

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two lon/lat
// points in meters.
func HaversineMeters(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// boundingBox returns the lon/lat half-spans covering radiusMeters around a
// latitude. Used as a cheap SQL prefilter before exact haversine ranking.
func boundingBox(lat, radiusMeters float64) (dLon, dLat float64) {
	dLat = radiusMeters / 111320.0
	cos := math.Cos(lat * math.Pi / 180.0)
	if cos < 0.01 {
		cos = 0.01 // near the poles every longitude is close
	}
	dLon = radiusMeters / (111320.0 * cos)
	return dLon, dLat
}
