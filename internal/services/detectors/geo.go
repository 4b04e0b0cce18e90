package detectors

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"tendersight/internal/domain"
)

// GeographicMismatch is a lexical heuristic, not a geocoder. A contract is
// flagged when the winner's name carries a place keyword of another known
// municipality and none of the declared municipality's own keywords.
// Municipalities missing from the table are never flagged.
type GeographicMismatch struct {
	Settings Settings
	Clock    Clock
	Table    map[string][]string
}

// DefaultMunicipalityKeywords is the fixed municipality -> keyword table.
func DefaultMunicipalityKeywords() map[string][]string {
	return map[string][]string{
		"stockholm": {"stockholm", "stockholms", "södermalm", "östermalm"},
		"göteborg":  {"göteborg", "göteborgs", "west", "väst"},
		"malmö":     {"malmö", "malmös", "skåne", "south", "syd"},
		"uppsala":   {"uppsala"},
		"linköping": {"linköping", "östergötland"},
	}
}

func (d *GeographicMismatch) Kind() domain.Kind { return domain.KindGeographicMismatch }

func (d *GeographicMismatch) Detect(ctx context.Context, records []domain.ProcurementRecord) ([]domain.Finding, error) {
	if !d.Settings.GeoMismatchEnabled || len(d.Table) == 0 {
		return nil, nil
	}

	owner := make(map[string]string) // keyword -> municipality
	for muni, kws := range d.Table {
		for _, kw := range kws {
			owner[strings.ToLower(kw)] = strings.ToLower(muni)
		}
	}

	now := d.Clock()
	var out []domain.Finding
	for _, r := range records {
		if r.Municipality == nil {
			continue
		}
		declared := strings.ToLower(strings.TrimSpace(*r.Municipality))
		if _, known := d.Table[declared]; !known {
			continue
		}

		local := false
		foreign := make(map[string]bool)
		for _, tok := range nameTokens(r.WinnerName) {
			muni, ok := owner[tok]
			if !ok {
				continue
			}
			if muni == declared {
				local = true
				break
			}
			foreign[muni] = true
		}
		if local || len(foreign) == 0 {
			continue
		}

		others := make([]string, 0, len(foreign))
		for m := range foreign {
			others = append(others, m)
		}
		sort.Strings(others)
		score := d.Settings.GeoMismatchScore
		out = append(out, domain.Finding{
			SubjectRecordID: strPtr(r.ID),
			Kind:            d.Kind(),
			Discriminator:   declared,
			Description: fmt.Sprintf("Winner %q suggests a home region in %s, contract declared in %s",
				r.WinnerName, strings.Join(others, ", "), declared),
			RawScore:   score,
			RiskScore:  domain.ClampRisk(score),
			DetectedAt: now,
			Evidence: map[string]any{
				"declared_municipality": declared,
				"indicated_regions":     others,
				"winner":                r.WinnerName,
			},
		})
	}
	return out, nil
}

func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
