// Package records reads shipment/rate records from CSV and JSON exports.
package records

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

const (
	fieldLane        = "lane"
	fieldWeek        = "week"
	fieldCarrier     = "carrier"
	fieldRate        = "rate"
	fieldPerformance = "performance"
	fieldVolume      = "volume"
	fieldPort        = "port"
	fieldFacility    = "facility"
)

// headerAliases maps normalized header text to a record field. Headers are
// lowercased with spaces, dashes and underscores removed before lookup.
var headerAliases = map[string]string{
	"lane":             fieldLane,
	"week":             fieldWeek,
	"weeknumber":       fieldWeek,
	"wk":               fieldWeek,
	"carrier":          fieldCarrier,
	"scac":             fieldCarrier,
	"drayscac(fl)":     fieldCarrier,
	"drayscac":         fieldCarrier,
	"rate":             fieldRate,
	"baserate":         fieldRate,
	"performance":      fieldPerformance,
	"performancescore": fieldPerformance,
	"score":            fieldPerformance,
	"volume":           fieldVolume,
	"containercount":   fieldVolume,
	"containers":       fieldVolume,
	"port":             fieldPort,
	"dischargedport":   fieldPort,
	"facility":         fieldFacility,
	"fc":               fieldFacility,
}

var requiredFields = []string{fieldWeek, fieldCarrier, fieldRate, fieldVolume}

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

func canonicalHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
	return headerAliases[h]
}

// ReadCSV parses a header row followed by one shipment per line. An empty
// performance cell leaves Performance nil so the optimizer can report the
// dataset as incomplete. When no lane column is present the lane is built
// from the port and facility columns.
func ReadCSV(r io.Reader) ([]optimizer.Shipment, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []optimizer.Shipment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		if field := canonicalHeader(h); field != "" {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, field)
		}
	}
	_, hasLane := columns[fieldLane]
	_, hasPort := columns[fieldPort]
	_, hasFacility := columns[fieldFacility]
	if !hasLane && !(hasPort && hasFacility) {
		return nil, fmt.Errorf("%w: lane (or port and facility)", ErrMissingColumn)
	}

	shipments := []optimizer.Shipment{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(row) {
			continue
		}
		s, err := parseRow(row, columns)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		shipments = append(shipments, s)
	}
	return shipments, nil
}

func parseRow(row []string, columns map[string]int) (optimizer.Shipment, error) {
	cell := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	s := optimizer.Shipment{
		Lane:     cell(fieldLane),
		Carrier:  cell(fieldCarrier),
		Port:     cell(fieldPort),
		Facility: cell(fieldFacility),
	}
	if s.Lane == "" {
		s.Lane = s.Port + s.Facility
	}

	week, err := parseWeek(cell(fieldWeek))
	if err != nil {
		return s, err
	}
	s.Week = week

	if s.Rate, err = parseAmount(cell(fieldRate)); err != nil {
		return s, fmt.Errorf("rate: %w", err)
	}
	if s.Volume, err = parseAmount(cell(fieldVolume)); err != nil {
		return s, fmt.Errorf("volume: %w", err)
	}
	if s.Performance, err = parsePerformance(cell(fieldPerformance)); err != nil {
		return s, fmt.Errorf("performance: %w", err)
	}
	return s, nil
}

// parseWeek accepts "27", "27.0" and "WK27".
func parseWeek(value string) (int, error) {
	trimmed := strings.TrimPrefix(strings.ToUpper(value), "WK")
	if trimmed == "" {
		return 0, fmt.Errorf("week is empty")
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("week %q is not a whole number", value)
	}
	return int(f), nil
}

// parseAmount accepts plain numbers and currency text like "$1,250.00".
func parseAmount(value string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("value is empty")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return f, nil
}

// parsePerformance returns nil for empty or "nan" cells. A trailing percent
// sign scales the value to a fraction.
func parsePerformance(value string) (*float64, error) {
	if value == "" || strings.EqualFold(value, "nan") {
		return nil, nil
	}
	percent := strings.HasSuffix(value, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, "%")), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", value)
	}
	if percent {
		f /= 100
	}
	return &f, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadJSON decodes a JSON array of shipments.
func ReadJSON(r io.Reader) ([]optimizer.Shipment, error) {
	var shipments []optimizer.Shipment
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&shipments); err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	if shipments == nil {
		shipments = []optimizer.Shipment{}
	}
	return shipments, nil
}
