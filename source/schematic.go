package source

import (
	"io"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
)

// SchematicAdapter normalizes the schematic connectivity list: no geometry,
// but authoritative declared from/to linkage.
type SchematicAdapter struct {
	logger *zap.SugaredLogger
}

func NewSchematicAdapter(logger *zap.SugaredLogger) *SchematicAdapter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SchematicAdapter{logger: logger}
}

func (a *SchematicAdapter) Read(r io.Reader) (*Result, error) {
	return readRows(newReader(r), a.logger, a.parseRow)
}

func (a *SchematicAdapter) parseRow(cols columns, row []string) (network.Record, error) {
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

	return network.Record{
		Identifier:  identifier,
		Category:    category,
		ElementType: cols.field(row, "element_type", "type"),
		Subtype:     cols.field(row, "subtype"),
		FromID:      cols.field(row, "from_code", "from"),
		ToID:        cols.field(row, "to_code", "to"),
		Active:      active,
		Provenance:  network.ProvenanceSchematic,
	}, nil
}
