// Package fare prices rides from a per-mile rate table.
package fare

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"husaride/internal/models"
)

const (
	// AverageSpeedMPH converts distance to travel time.
	AverageSpeedMPH = 25.0
	// timeRateFactor scales the per-mile rate into a per-hour rate.
	timeRateFactor = 0.5
)

var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// RateTable maps vehicle types to a per-mile rate. It is built once at
// startup and never mutated afterwards.
type RateTable struct {
	rates map[models.VehicleType]float64
}

func NewRateTable(rates map[models.VehicleType]float64) RateTable {
	cp := make(map[models.VehicleType]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return RateTable{rates: cp}
}

// DefaultRates covers every bookable vehicle type.
func DefaultRates() RateTable {
	return NewRateTable(map[models.VehicleType]float64{
		models.VehicleLimo:    2.50,
		models.VehicleComfort: 1.80,
		models.VehicleLuxury:  3.50,
		models.VehicleSUV:     3.20,
		models.VehicleVan:     4.50,
		models.VehicleWedding: 8.00,
		models.VehicleBus:     6.00,
	})
}

func (t RateTable) Rate(v models.VehicleType) (float64, bool) {
	r, ok := t.rates[v]
	return r, ok
}

type RateEntry struct {
	VehicleType models.VehicleType `json:"vehicleType"`
	RatePerMile float64            `json:"ratePerMile"`
}

// Entries lists the table sorted by vehicle type.
func (t RateTable) Entries() []RateEntry {
	out := make([]RateEntry, 0, len(t.rates))
	for k, v := range t.rates {
		out = append(out, RateEntry{VehicleType: k, RatePerMile: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleType < out[j].VehicleType })
	return out
}

type Quote struct {
	Distance      float64 `json:"distance"`
	EstimatedTime float64 `json:"estimatedTime"`
	Fare          float64 `json:"fare"`
}

// Compute prices a trip of distance miles:
// distance*rate + (distance/speed)*(rate*0.5), rounded to cents.
func Compute(rate, distance float64) Quote {
	hours := distance / AverageSpeedMPH
	total := distance*rate + hours*rate*timeRateFactor
	return Quote{
		Distance:      distance,
		EstimatedTime: hours,
		Fare:          math.Round(total*100) / 100,
	}
}

// DistanceSource yields a trip distance in miles.
type DistanceSource func() float64

// UniformMiles draws an integer distance in [min, max].
func UniformMiles(min, max int) DistanceSource {
	return func() float64 {
		return float64(min + rand.Intn(max-min+1))
	}
}

type Calculator struct {
	rates    RateTable
	distance DistanceSource
}

func NewCalculator(rates RateTable, distance DistanceSource) *Calculator {
	if distance == nil {
		distance = UniformMiles(1, 15)
	}
	return &Calculator{rates: rates, distance: distance}
}

func (c *Calculator) Rates() RateTable {
	return c.rates
}

// Quote draws a distance and prices it for the vehicle type.
func (c *Calculator) Quote(v models.VehicleType) (Quote, error) {
	rate, ok := c.rates.Rate(v)
	if !ok {
		return Quote{}, ErrUnknownVehicleType
	}
	return Compute(rate, c.distance()), nil
}
