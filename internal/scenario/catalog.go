// Package scenario is the read-only table of named impact presets.
package scenario

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Categories of the built-in presets.
const (
	CategorySmallEvent       = "small_event"
	CategoryMediumEvent      = "medium_event"
	CategoryCityKiller       = "city_killer"
	CategoryRegionalDisaster = "regional_disaster"
	CategoryExtinctionEvent  = "extinction_event"
)

func preset(id, name, desc, category string, historical bool, year int, loc domain.Location, d, v, rho, angle float64) domain.ScenarioDefinition {
	return domain.ScenarioDefinition{
		ID:          id,
		Name:        name,
		Description: desc,
		Category:    category,
		Historical:  historical,
		Year:        year,
		Location:    loc,
		Parameters: domain.ImpactParameters{
			DiameterM:   d,
			VelocityKmS: v,
			DensityKgM3: rho,
			AngleDeg:    angle,
			ImpactLat:   loc.Lat,
			ImpactLon:   loc.Lon,
		},
	}
}

var builtin = []domain.ScenarioDefinition{
	preset("apophis_potential", "Apophis 2029 Close Approach",
		"Potentially hazardous asteroid - modeled impact scenario.",
		CategoryCityKiller, false, 0,
		domain.Location{Lat: 40.7128, Lon: -74.0060, Name: "New York City, USA"},
		340, 12.87, 2600, 45),
	preset("chelyabinsk_2013", "2013 Chelyabinsk Event (Actual)",
		"Actual airburst over Russia in 2013. Injured ~1500 people.",
		CategorySmallEvent, true, 2013,
		domain.Location{Lat: 55.1544, Lon: 61.4294, Name: "Chelyabinsk, Russia"},
		20, 19.16, 3300, 18),
	preset("chicxulub_scale", "Chicxulub-Scale Event (K-Pg Extinction)",
		"Dinosaur extinction event scale impact (66 million years ago).",
		CategoryExtinctionEvent, true, 0,
		domain.Location{Lat: 21.4, Lon: -89.5, Name: "Yucatan Peninsula, Mexico"},
		10000, 20, 2600, 60),
	preset("city_killer", "City Killer Scenario",
		"NASA threshold for city-destroying asteroid.",
		CategoryCityKiller, false, 0,
		domain.Location{Lat: 35.6762, Lon: 139.6503, Name: "Tokyo, Japan"},
		140, 18, 2600, 45),
	preset("planetary_defense_test", "Planetary Defense Test Case",
		"Test case for planetary defense systems and impact mitigation.",
		CategoryCityKiller, false, 0,
		domain.Location{Lat: 48.8566, Lon: 2.3522, Name: "Paris, France"},
		250, 22, 2400, 35),
	preset("regional_disaster", "Regional Disaster Scenario",
		"Regional-scale impact causing widespread damage.",
		CategoryRegionalDisaster, false, 0,
		domain.Location{Lat: 51.5074, Lon: -0.1278, Name: "London, UK"},
		500, 25, 2800, 30),
	preset("small_meteor", "Small Meteor Event",
		"Typical small meteor event - usually burns up in atmosphere.",
		CategorySmallEvent, false, 0,
		domain.Location{Lat: 34.0522, Lon: -118.2437, Name: "Los Angeles, USA"},
		5, 15, 3000, 45),
	preset("tunguska_1908", "1908 Tunguska Event (Estimated)",
		"Massive airburst over Siberia. Flattened 2,000 km² of forest.",
		CategoryMediumEvent, true, 1908,
		domain.Location{Lat: 60.8858, Lon: 101.8942, Name: "Tunguska, Siberia"},
		60, 27, 2000, 30),
}

// Catalog serves the presets. Every method returns copies, so callers
// cannot mutate the table.
type Catalog struct {
	byID map[string]domain.ScenarioDefinition
	ids  []string
}

// New returns the built-in catalog.
func New() *Catalog {
	return newCatalog(builtin)
}

func newCatalog(defs []domain.ScenarioDefinition) *Catalog {
	c := &Catalog{byID: make(map[string]domain.ScenarioDefinition, len(defs))}
	for _, d := range defs {
		c.byID[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Strings(c.ids)
	return c
}

// Get returns the preset with the given id.
func (c *Catalog) Get(id string) (domain.ScenarioDefinition, error) {
	d, ok := c.byID[id]
	if !ok {
		return domain.ScenarioDefinition{}, domain.NotFound("scenario_id", id)
	}
	return d, nil
}

// List returns every preset ordered by id.
func (c *Catalog) List() []domain.ScenarioDefinition {
	return c.filter(func(domain.ScenarioDefinition) bool { return true })
}

// ByCategory returns the presets of one category.
func (c *Catalog) ByCategory(category string) []domain.ScenarioDefinition {
	return c.filter(func(d domain.ScenarioDefinition) bool { return d.Category == category })
}

// Historical returns the presets modelled on real events.
func (c *Catalog) Historical() []domain.ScenarioDefinition {
	return c.filter(func(d domain.ScenarioDefinition) bool { return d.Historical })
}

// Search matches query case-insensitively against id, name and description.
func (c *Catalog) Search(query string) []domain.ScenarioDefinition {
	q := strings.ToLower(strings.TrimSpace(query))
	return c.filter(func(d domain.ScenarioDefinition) bool {
		return strings.Contains(strings.ToLower(d.ID), q) ||
			strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Description), q)
	})
}

// Categories maps each category to its preset ids.
func (c *Catalog) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, id := range c.ids {
		cat := c.byID[id].Category
		out[cat] = append(out[cat], id)
	}
	return out
}

func (c *Catalog) filter(keep func(domain.ScenarioDefinition) bool) []domain.ScenarioDefinition {
	out := []domain.ScenarioDefinition{}
	for _, id := range c.ids {
		if d := c.byID[id]; keep(d) {
			out = append(out, d)
		}
	}
	return out
}
