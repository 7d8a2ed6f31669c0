// Package racematch attaches race names to long-distance activities by
// fuzzy-matching against a scraped public event calendar. The scrape
// mechanics live behind the Calendar interface so they can be swapped
// for a different source without touching the matching algorithm.
package racematch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/stridelog/server/pkg/domain/geo"
)

// Race is one scraped calendar entry. Ephemeral: cached per sync
// session, never persisted.
type Race struct {
	Name        string
	Date        string // YYYY-MM-DD
	City        string
	Coordinates *geo.Point
}

// Calendar returns the race list for a calendar year.
type Calendar interface {
	Races(ctx context.Context, year int) ([]Race, error)
}

const (
	defaultListingBaseURL = "https://www.runchina-events.com"
	listingPageSize       = 50
	maxListingPages       = 40 // hard stop against a pagination loop
)

// Road-race inclusion minus the noise the calendar mixes in: training
// runs, virtual runs, trail/hiking/kids events.
var (
	racePattern    = regexp.MustCompile(`马拉松|半程|半马|全马|10公里精英赛`)
	excludePattern = regexp.MustCompile(`线上|虚拟|训练|越野|徒步|登山|亲子|家庭|儿童|少儿|健走|欢乐跑`)

	rowPattern  = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	cellPattern = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// ListingCalendar scrapes the paginated public race listing. Brittle by
// nature; rendered-DOM text extraction, not a JSON API.
type ListingCalendar struct {
	BaseURL string
	Fetcher Fetcher
}

func NewListingCalendar(fetcher Fetcher) *ListingCalendar {
	return &ListingCalendar{BaseURL: defaultListingBaseURL, Fetcher: fetcher}
}

// Races scrapes every listing page for one year and keeps road-race
// entries with a resolvable date.
func (c *ListingCalendar) Races(ctx context.Context, year int) ([]Race, error) {
	var races []Race

	for page := 1; page <= maxListingPages; page++ {
		url := fmt.Sprintf("%s/events?year=%d&type=run&page=%d&per-page=%d", c.BaseURL, year, page, listingPageSize)
		html, err := c.Fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch race listing page %d: %w", page, err)
		}

		pageRaces := parseListingPage(html)
		races = append(races, pageRaces...)

		slog.Debug("Scraped race listing page", "year", year, "page", page, "entries", len(pageRaces))

		// A short page signals end-of-data
		if len(pageRaces) < listingPageSize {
			break
		}
	}

	slog.Info("Scraped race calendar", "year", year, "races", len(races))
	return races, nil
}

// parseListingPage extracts race rows from one listing page. Rows carry
// name, date, "province·city" location.
func parseListingPage(html string) []Race {
	var races []Race

	for _, rowMatch := range rowPattern.FindAllStringSubmatch(html, -1) {
		row := rowMatch[1]
		if strings.Contains(row, "<th") {
			continue
		}

		cells := cellPattern.FindAllStringSubmatch(row, -1)
		if len(cells) < 3 {
			continue
		}

		name := stripTags(cells[0][1])
		date := datePattern.FindString(stripTags(cells[1][1]))
		location := stripTags(cells[2][1])

		if name == "" || date == "" {
			continue
		}
		if !racePattern.MatchString(name) || excludePattern.MatchString(name) {
			continue
		}

		race := Race{Name: name, Date: date}

		// City resolution: race name first, then the location string
		city, ok := CityFromRaceName(name)
		if !ok {
			city, ok = CityFromLocation(location)
		}
		if ok {
			race.City = city
			if coord, found := CityCoordinate(city); found {
				race.Coordinates = &coord
			}
		}

		races = append(races, race)
	}

	return races
}

func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
