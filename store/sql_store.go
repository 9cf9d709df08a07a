package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/db"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
)

// elementColumns is the scan order every element query uses
const elementColumns = `short_code, category, element_type, subtype, from_code, to_code,
	river_name, river_mile, lon, lat, geometry, active, connectivity_status, provenance`

// Query constants
const (
	elementByIdentifierQuery = `
		SELECT ` + elementColumns + `
		FROM elements WHERE short_code = ?`

	elementsByFromCodeQuery = `
		SELECT ` + elementColumns + `
		FROM elements WHERE from_code = ? ORDER BY short_code`

	elementsByToCodeQuery = `
		SELECT ` + elementColumns + `
		FROM elements WHERE to_code = ? ORDER BY short_code`

	elementsLinkedFromQuery = `
		SELECT ` + elementColumns + `
		FROM elements
		WHERE short_code IN (SELECT to_code FROM elements WHERE short_code = ? AND to_code != '')
		ORDER BY short_code`

	elementsLinkedToQuery = `
		SELECT ` + elementColumns + `
		FROM elements
		WHERE short_code IN (SELECT from_code FROM elements WHERE short_code = ? AND from_code != '')
		ORDER BY short_code`

	elementsSameRiverQuery = `
		SELECT ` + elementColumns + `
		FROM elements
		WHERE river_name = ? COLLATE NOCASE
		  AND river_mile IS NOT NULL
		  AND ABS(river_mile - ?) <= ?
		ORDER BY ABS(river_mile - ?) ASC, short_code ASC
		LIMIT ?`

	elementsInBoxQuery = `
		SELECT ` + elementColumns + `
		FROM elements
		WHERE lon IS NOT NULL AND lat IS NOT NULL
		  AND lon BETWEEN ? AND ?
		  AND lat BETWEEN ? AND ?`

	geometryByIdentifierQuery = `
		SELECT geometry FROM elements WHERE short_code = ?`

	elementInsertQuery = `
		INSERT INTO elements (short_code, category, element_type, subtype, from_code, to_code,
			river_name, river_mile, lon, lat, geometry, active, connectivity_status, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(short_code) DO UPDATE SET
			category = excluded.category,
			element_type = excluded.element_type,
			subtype = excluded.subtype,
			from_code = excluded.from_code,
			to_code = excluded.to_code,
			river_name = excluded.river_name,
			river_mile = excluded.river_mile,
			lon = excluded.lon,
			lat = excluded.lat,
			geometry = excluded.geometry,
			active = excluded.active,
			connectivity_status = excluded.connectivity_status,
			provenance = excluded.provenance`
)

// SQLStore implements SpatialStore with a SQLite backend
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLStore creates a new SQL-based spatial store
func NewSQLStore(db *sql.DB, logger *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger.Named("store"),
	}
}

// wrapQueryErr classifies a failed query. A closed connection, typically
// shutdown racing an in-flight trace, is surfaced as store-unavailable so
// callers fail the request instead of degrading results.
func wrapQueryErr(err error, format string, args ...interface{}) error {
	wrapped := errors.Wrapf(err, format, args...)
	if db.IsDatabaseClosed(err) {
		return errors.Mark(wrapped, errors.ErrStoreUnavailable)
	}
	return wrapped
}

// GetByIdentifier returns the element with the given short code
func (s *SQLStore) GetByIdentifier(ctx context.Context, id string) (*network.Element, error) {
	row := s.db.QueryRowContext(ctx, elementByIdentifierQuery, id)
	el, err := scanElement(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("element %s", id)
	}
	if err != nil {
		return nil, wrapQueryErr(err, "query element %s", id)
	}
	return el, nil
}

// GetDirectNeighbors enumerates explicitly linked elements.
// Downstream neighbors of id are elements declaring from=id plus the element
// id itself declares as its to; upstream is the mirror.
func (s *SQLStore) GetDirectNeighbors(ctx context.Context, id string, direction network.Direction) ([]*network.Element, error) {
	var queries []string
	switch direction {
	case network.DirectionDownstream:
		queries = []string{elementsByFromCodeQuery, elementsLinkedFromQuery}
	case network.DirectionUpstream:
		queries = []string{elementsByToCodeQuery, elementsLinkedToQuery}
	default:
		queries = []string{elementsByFromCodeQuery, elementsLinkedFromQuery, elementsByToCodeQuery, elementsLinkedToQuery}
	}

	seen := make(map[string]struct{})
	var neighbors []*network.Element
	for _, query := range queries {
		rows, err := s.db.QueryContext(ctx, query, id)
		if err != nil {
			return nil, wrapQueryErr(err, "query neighbors of %s", id)
		}
		els, err := scanElements(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan neighbors of %s", id)
		}
		for _, el := range els {
			if el.Identifier == id {
				continue // self-loops in the declared linkage
			}
			if _, dup := seen[el.Identifier]; dup {
				continue
			}
			seen[el.Identifier] = struct{}{}
			neighbors = append(neighbors, el)
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Identifier < neighbors[j].Identifier
	})
	return neighbors, nil
}

// GetSameRiver returns elements on the named river within the mile window,
// closest first
func (s *SQLStore) GetSameRiver(ctx context.Context, riverName string, mileCenter, mileWindow float64, limit int) ([]*network.Element, error) {
	if riverName == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, elementsSameRiverQuery,
		riverName, mileCenter, mileWindow, mileCenter, limit)
	if err != nil {
		return nil, wrapQueryErr(err, "query river %s", riverName)
	}
	return scanElements(rows)
}

// GetWithinRadius returns elements within radiusMeters of lon/lat, nearest
// first. A bounding-box SQL prefilter narrows candidates before exact
// haversine ranking in process.
func (s *SQLStore) GetWithinRadius(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]*network.Element, error) {
	if radiusMeters <= 0 || limit <= 0 {
		return nil, nil
	}

	dLon, dLat := boundingBox(lat, radiusMeters)
	rows, err := s.db.QueryContext(ctx, elementsInBoxQuery,
		lon-dLon, lon+dLon, lat-dLat, lat+dLat)
	if err != nil {
		return nil, wrapQueryErr(err, "query radius")
	}
	els, err := scanElements(rows)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		el   *network.Element
		dist float64
	}
	var inRange []ranked
	for _, el := range els {
		elLon, elLat, ok := el.Location()
		if !ok {
			continue
		}
		d := HaversineMeters(lon, lat, elLon, elLat)
		if d <= radiusMeters {
			inRange = append(inRange, ranked{el, d})
		}
	}
	sort.Slice(inRange, func(i, j int) bool {
		if inRange[i].dist != inRange[j].dist {
			return inRange[i].dist < inRange[j].dist
		}
		return inRange[i].el.Identifier < inRange[j].el.Identifier
	})

	if len(inRange) > limit {
		inRange = inRange[:limit]
	}
	result := make([]*network.Element, len(inRange))
	for i, r := range inRange {
		result[i] = r.el
	}
	return result, nil
}

// GetGeometry returns the element's geometry, nil when absent
func (s *SQLStore) GetGeometry(ctx context.Context, id string) (*network.Geometry, error) {
	var text string
	err := s.db.QueryRowContext(ctx, geometryByIdentifierQuery, id).Scan(&text)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("element %s", id)
	}
	if err != nil {
		return nil, wrapQueryErr(err, "query geometry of %s", id)
	}
	return network.ParseGeometry(text)
}

// InsertSnapshot writes a merged graph into the store in one transaction.
// Existing rows with the same short code are replaced.
func (s *SQLStore) InsertSnapshot(ctx context.Context, g *network.Graph) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin snapshot tx")
	}

	stmt, err := tx.PrepareContext(ctx, elementInsertQuery)
	if err != nil {
		tx.Rollback()
		return 0, errors.Wrap(err, "prepare element insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, id := range g.Identifiers() {
		el, _ := g.Element(id)
		if err := insertElement(ctx, stmt, el); err != nil {
			tx.Rollback()
			return 0, errors.Wrapf(err, "insert element %s", id)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit snapshot tx")
	}

	s.logger.Infow("Snapshot inserted", "elements", inserted)
	return inserted, nil
}

func insertElement(ctx context.Context, stmt *sql.Stmt, el *network.Element) error {
	var geomText string
	var lon, lat sql.NullFloat64
	if el.HasGeometry() {
		raw, err := geometryText(el.Geometry)
		if err != nil {
			return err
		}
		geomText = raw
		if x, y, ok := el.Location(); ok {
			lon = sql.NullFloat64{Float64: x, Valid: true}
			lat = sql.NullFloat64{Float64: y, Valid: true}
		}
	}

	var mile sql.NullFloat64
	if el.RiverMile != nil {
		mile = sql.NullFloat64{Float64: *el.RiverMile, Valid: true}
	}

	provenance := make([]string, 0, len(el.Provenance))
	for _, p := range el.Provenance {
		provenance = append(provenance, string(p))
	}
	sort.Strings(provenance)

	_, err := stmt.ExecContext(ctx,
		el.Identifier,
		string(el.Category),
		el.ElementType,
		el.Subtype,
		el.FromID,
		el.ToID,
		el.RiverName,
		mile,
		lon,
		lat,
		geomText,
		el.Active,
		string(el.Connectivity),
		strings.Join(provenance, ","),
	)
	return err
}

// LoadSnapshot fetches every element and rebuilds the in-process graph,
// for ghost-endpoint reporting and whole-network linking passes.
func (s *SQLStore) LoadSnapshot(ctx context.Context) (*network.Graph, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+elementColumns+`
		FROM elements ORDER BY short_code`)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshot")
	}
	els, err := scanElements(rows)
	if err != nil {
		return nil, errors.Wrap(err, "scan snapshot")
	}
	return network.GraphFromElements(els), nil
}

// Stats summarizes store contents for the db stats command
type Stats struct {
	TotalElements int
	Nodes         int
	Arcs          int
	WithGeometry  int
	Connected     int
	Partial       int
	Unconnected   int
}

// GetStats returns element counts by category and connectivity status
func (s *SQLStore) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN category = 'node' THEN 1 END),
			COUNT(CASE WHEN category = 'arc' THEN 1 END),
			COUNT(CASE WHEN geometry != '' THEN 1 END),
			COUNT(CASE WHEN connectivity_status = 'connected' THEN 1 END),
			COUNT(CASE WHEN connectivity_status = 'partial' THEN 1 END),
			COUNT(CASE WHEN connectivity_status = 'unconnected' THEN 1 END)
		FROM elements`).Scan(
		&st.TotalElements, &st.Nodes, &st.Arcs, &st.WithGeometry,
		&st.Connected, &st.Partial, &st.Unconnected)
	if err != nil {
		return nil, errors.Wrap(err, "query store stats")
	}
	return &st, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanElement
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanElement(row scanner) (*network.Element, error) {
	var el network.Element
	var category, connectivity, provenance, geomText string
	var mile, lon, lat sql.NullFloat64

	err := row.Scan(
		&el.Identifier,
		&category,
		&el.ElementType,
		&el.Subtype,
		&el.FromID,
		&el.ToID,
		&el.RiverName,
		&mile,
		&lon,
		&lat,
		&geomText,
		&el.Active,
		&connectivity,
		&provenance,
	)
	if err != nil {
		return nil, err
	}

	el.Category = network.Category(category)
	el.Connectivity = network.ConnectivityStatus(connectivity)
	if mile.Valid {
		v := mile.Float64
		el.RiverMile = &v
	}
	if geomText != "" {
		geom, err := network.ParseGeometry(geomText)
		if err != nil {
			return nil, errors.Wrapf(err, "element %s geometry", el.Identifier)
		}
		el.Geometry = geom
	}
	for _, p := range strings.Split(provenance, ",") {
		if p != "" {
			el.Provenance = append(el.Provenance, network.Provenance(p))
		}
	}
	return &el, nil
}

func scanElements(rows *sql.Rows) ([]*network.Element, error) {
	defer rows.Close()
	var els []*network.Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		els = append(els, el)
	}
	return els, rows.Err()
}

func geometryText(g *network.Geometry) (string, error) {
	if g == nil {
		return "", nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return "", errors.Wrap(err, "marshal geometry")
	}
	return string(raw), nil
}
