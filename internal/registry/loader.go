package registry

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// expectedHeader is the normative column order for every tabular resource
// (spec.md §6). A resource with a different header is a fatal load error,
// not a best-effort remap — registry.md §4.1 fail-loudly rule.
var expectedHeader = []string{
	"class_name", "sfiles_alias", "is_primary", "family", "category",
	"symbol_id", "port_count", "display_name",
}

// parseCSV decodes one tabular resource into Entry rows tagged with the
// given component family (Equipment/Piping/Instrumentation).
func parseCSV(family model.Family, r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errs.Wrap(errs.InvalidPayload, "reading registry resource header", err)
	}
	if len(header) != len(expectedHeader) {
		return nil, errs.Newf(errs.InvalidPayload, "registry resource has %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, col := range expectedHeader {
		if strings.TrimSpace(header[i]) != col {
			return nil, errs.Newf(errs.InvalidPayload, "registry resource column %d is %q, want %q", i, header[i], col)
		}
	}

	var entries []Entry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.InvalidPayload, "reading registry resource row", err)
		}
		if len(row) != len(expectedHeader) {
			return nil, errs.Newf(errs.InvalidPayload, "registry resource row has %d columns, want %d", len(row), len(expectedHeader))
		}
		isPrimary, err := strconv.ParseBool(row[2])
		if err != nil {
			return nil, errs.Wrap(errs.InvalidPayload, "parsing is_primary", err)
		}
		portCount, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, errs.Wrap(errs.InvalidPayload, "parsing port_count", err)
		}
		entries = append(entries, Entry{
			ClassName:   model.Kind(row[0]),
			Alias:       row[1],
			IsPrimary:   isPrimary,
			FamilyName:  row[3],
			Family:      family,
			Category:    model.Category(row[4]),
			SymbolID:    row[5],
			PortCount:   portCount,
			DisplayName: row[7],
		})
	}
	return entries, nil
}
