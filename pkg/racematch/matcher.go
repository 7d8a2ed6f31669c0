package racematch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stridelog/server/pkg/domain/geo"
)

const (
	// Only long activities are candidates for race matching.
	minRaceDistanceMeters = 20500

	// An activity starting within this radius of the host city's
	// reference coordinate counts as geographic confirmation.
	cityProximityMeters = 50000

	dateMatchScore = 1
	geoMatchBonus  = 3
)

// Session holds the resources one sync session needs for race matching:
// the shared page fetcher and a year-keyed cache of scraped race lists.
// Both are scoped to the session; Close must run on every exit path.
// Sessions are not safe for concurrent use - run one sync at a time or
// give each its own Session.
type Session struct {
	calendar Calendar
	fetcher  Fetcher
	cache    map[int][]Race
}

// NewSession acquires a fetcher (remote rendered-page service when
// fetcherURL is set, direct HTTP otherwise) and an empty year cache.
func NewSession(fetcherURL string) *Session {
	fetcher := NewFetcher(fetcherURL)
	return &Session{
		calendar: NewListingCalendar(fetcher),
		fetcher:  fetcher,
		cache:    make(map[int][]Race),
	}
}

// NewSessionWithCalendar builds a session over a custom calendar.
// Used by tests and by callers that substitute the scrape source.
func NewSessionWithCalendar(calendar Calendar) *Session {
	return &Session{
		calendar: calendar,
		cache:    make(map[int][]Race),
	}
}

// Close tears the fetcher down. Skipping it leaks a browser session on
// the remote fetch service.
func (s *Session) Close() error {
	s.cache = make(map[int][]Race)
	if s.fetcher == nil {
		return nil
	}
	return s.fetcher.Close()
}

// MatchRace attaches a race name to a long activity by date proximity
// plus geographic proximity of the start point to the race's host city.
// Best-effort and intentionally conservative: a wrong guess is worse
// than no match, so ambiguity yields ok=false. Scrape failures are
// logged and also yield ok=false - not the caller's failure.
func (s *Session) MatchRace(ctx context.Context, activityDate time.Time, distanceMeters float64, coord *geo.Point) (string, bool) {
	if distanceMeters < minRaceDistanceMeters {
		return "", false
	}

	year := activityDate.Year()
	races, err := s.racesForYear(ctx, year)
	if err != nil {
		slog.Warn("Race calendar scrape failed, skipping race match", "year", year, "error", err)
		return "", false
	}

	type candidate struct {
		race  Race
		score int
	}
	var candidates []candidate

	for _, race := range races {
		raceDate, err := time.Parse("2006-01-02", race.Date)
		if err != nil {
			continue
		}
		if !withinOneDay(activityDate, raceDate) {
			continue
		}

		score := dateMatchScore
		if coord != nil && race.Coordinates != nil {
			if geo.HaversineDistance(*coord, *race.Coordinates) <= cityProximityMeters {
				score += geoMatchBonus
			}
		}
		candidates = append(candidates, candidate{race: race, score: score})
	}

	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	bestCount := 1
	for _, c := range candidates[1:] {
		switch {
		case c.score > best.score:
			best = c
			bestCount = 1
		case c.score == best.score:
			bestCount++
		}
	}

	// A geo-confirmed winner is trusted. A date-only winner is trusted
	// only when it is the sole candidate for that day; several races on
	// the same date with no geographic confirmation stay unmatched to
	// avoid false positives from coincidental same-day races elsewhere.
	if best.score == dateMatchScore && len(candidates) > 1 {
		slog.Info("Ambiguous race match rejected",
			"date", activityDate.Format("2006-01-02"),
			"candidates", len(candidates))
		return "", false
	}
	if best.score > dateMatchScore && bestCount > 1 {
		slog.Info("Multiple geo-confirmed races on one day, rejecting match",
			"date", activityDate.Format("2006-01-02"))
		return "", false
	}

	return prefixYear(best.race.Name, year), true
}

// racesForYear scrapes lazily and caches per year for the session.
func (s *Session) racesForYear(ctx context.Context, year int) ([]Race, error) {
	if races, ok := s.cache[year]; ok {
		return races, nil
	}
	races, err := s.calendar.Races(ctx, year)
	if err != nil {
		return nil, err
	}
	s.cache[year] = races
	return races, nil
}

func withinOneDay(a, b time.Time) bool {
	dayA := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	dayB := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := dayA.Sub(dayB)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 24*time.Hour
}

func prefixYear(name string, year int) string {
	yearStr := strconv.Itoa(year)
	if strings.HasPrefix(name, yearStr) {
		return name
	}
	return fmt.Sprintf("%s %s", yearStr, name)
}
