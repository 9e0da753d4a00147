package property

import "github.com/shopspring/decimal"

// Statistics holds aggregate metrics over one page of properties.
// Metrics are page-local: a caller requesting page 2 gets
// page-2-only statistics.
type Statistics struct {
	TotalProperties  int            `json:"totalProperties"`
	TotalArea        float64        `json:"totalArea"`
	TotalPerimeter   float64        `json:"totalPerimeter"`
	AverageArea      float64        `json:"averageArea"`
	LargestProperty  float64        `json:"largestProperty"`
	SmallestProperty float64        `json:"smallestProperty"`
	TypeDistribution map[string]int `json:"typeDistribution"`
}

// Aggregate computes summary statistics over a page of properties.
// Sums run on exact decimals; conversion to floating point happens
// only on the way out. Largest and smallest consider strictly
// positive areas and are zero when no such area exists.
func Aggregate(properties []*Property) Statistics {
	totalArea := decimal.Zero
	totalPerimeter := decimal.Zero
	var positive []decimal.Decimal
	distribution := make(map[string]int)

	for _, p := range properties {
		totalArea = totalArea.Add(p.Area)
		totalPerimeter = totalPerimeter.Add(p.Perimeter)
		if p.Area.Sign() > 0 {
			positive = append(positive, p.Area)
		}
		distribution[string(p.Type)]++
	}

	largest := decimal.Zero
	smallest := decimal.Zero
	if len(positive) > 0 {
		largest = positive[0]
		smallest = positive[0]
		for _, a := range positive[1:] {
			if a.GreaterThan(largest) {
				largest = a
			}
			if a.LessThan(smallest) {
				smallest = a
			}
		}
	}

	average := decimal.Zero
	if len(properties) > 0 {
		average = totalArea.Div(decimal.NewFromInt(int64(len(properties))))
	}

	return Statistics{
		TotalProperties:  len(properties),
		TotalArea:        totalArea.InexactFloat64(),
		TotalPerimeter:   totalPerimeter.InexactFloat64(),
		AverageArea:      average.InexactFloat64(),
		LargestProperty:  largest.InexactFloat64(),
		SmallestProperty: smallest.InexactFloat64(),
		TypeDistribution: distribution,
	}
}
