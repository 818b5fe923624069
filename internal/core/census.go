package core

import (
	"context"
	"shobergarden/pkg/genome"

	"github.com/prometheus/client_golang/prometheus"
)

// GardenCensus counts the live state of a garden.
type GardenCensus struct {
	PetsByRarity        map[genome.Tier]int `json:"pets_by_rarity"`
	OpenListings        int                 `json:"open_listings"`
	PendingStudRequests int                 `json:"pending_stud_requests"`
}

// Census counts pets by overall rarity, open listings and stud requests
// that are still pending and unexpired.
func (s *Service) Census(ctx context.Context) (GardenCensus, error) {
	census := GardenCensus{PetsByRarity: make(map[genome.Tier]int)}
	now := s.clock.Now()
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, p := range view.ListPets() {
			census.PetsByRarity[genome.OverallRarity(p.RarityScore)]++
		}
		census.OpenListings = len(view.ListListings())
		for _, r := range view.ListStudRequests() {
			if r.Status == StudPending && r.Open(now) {
				census.PendingStudRequests++
			}
		}
		return nil
	})
	return census, err
}

type gardenCollector struct {
	svc      *Service
	pets     *prometheus.Desc
	listings *prometheus.Desc
	studs    *prometheus.Desc
}

// NewGardenCollector reports svc's Census as gauges on every scrape.
func NewGardenCollector(svc *Service) prometheus.Collector {
	return &gardenCollector{
		svc: svc,
		pets: prometheus.NewDesc("shobergarden_garden_pets", "Pets by overall rarity.",
			[]string{"rarity"}, nil),
		listings: prometheus.NewDesc("shobergarden_garden_open_listings", "Open marketplace listings.",
			nil, nil),
		studs: prometheus.NewDesc("shobergarden_garden_pending_stud_requests", "Unexpired pending stud requests.",
			nil, nil),
	}
}

func (c *gardenCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pets
	ch <- c.listings
	ch <- c.studs
}

func (c *gardenCollector) Collect(ch chan<- prometheus.Metric) {
	census, err := c.svc.Census(context.Background())
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.pets, err)
		return
	}
	for _, info := range genome.Tiers() {
		ch <- prometheus.MustNewConstMetric(c.pets, prometheus.GaugeValue,
			float64(census.PetsByRarity[info.Name]), string(info.Name))
	}
	ch <- prometheus.MustNewConstMetric(c.listings, prometheus.GaugeValue, float64(census.OpenListings))
	ch <- prometheus.MustNewConstMetric(c.studs, prometheus.GaugeValue, float64(census.PendingStudRequests))
}
