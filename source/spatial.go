package source

import (
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
)

// SpatialAdapter normalizes the geometry-rich spatial extract. Geometry is
// taken from a GeoJSON column when present, otherwise from lon/lat columns;
// rows with neither are kept as geometry-less records since the schematic
// merge may still need them.
type SpatialAdapter struct {
	logger *zap.SugaredLogger
}

func NewSpatialAdapter(logger *zap.SugaredLogger) *SpatialAdapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SpatialAdapter{logger: logger}
}

func (a *SpatialAdapter) Read(r io.Reader) (*Result, error) {
	return readRows(newReader(r), a.logger, a.parseRow)
}

func (a *SpatialAdapter) parseRow(cols columns, row []string) (network.Record, error) {
	identifier := cols.field(row, "short_code", "identifier")
	if identifier == "" {
		return network.Record{}, errors.New("missing identifier")
	}

	category, err := parseCategory(cols.field(row, "category"))
	if err != nil {
		return network.Record{}, err
	}
	active, err := parseActive(cols.field(row, "active"))
	if err != nil {
		return network.Record{}, err
	}

	rec := network.Record{
		Identifier:  identifier,
		Category:    category,
		ElementType: cols.field(row, "element_type", "type"),
		Subtype:     cols.field(row, "subtype"),
		FromID:      cols.field(row, "from_code", "from"),
		ToID:        cols.field(row, "to_code", "to"),
		RiverName:   cols.field(row, "river_name", "river"),
		Active:      active,
		Provenance:  network.ProvenanceSpatial,
	}

	if v := cols.field(row, "river_mile", "mile"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return network.Record{}, errors.Wrapf(err, "river mile %q", v)
		}
		rec.RiverMile = &m
	}

	if text := cols.field(row, "geometry", "geojson"); text != "" {
		g, err := network.ParseGeometry(text)
		if err != nil {
			return network.Record{}, errors.Wrap(err, "geometry")
		}
		rec.Geometry = g
		return rec, nil
	}

	lonText := cols.field(row, "lon", "longitude", "x")
	latText := cols.field(row, "lat", "latitude", "y")
	if lonText == "" || latText == "" {
		return rec, nil
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return network.Record{}, errors.Wrapf(err, "longitude %q", lonText)
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return network.Record{}, errors.Wrapf(err, "latitude %q", latText)
	}
	rec.Geometry = network.NewPoint(lon, lat)
	return rec, nil
}
