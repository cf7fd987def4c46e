// Package fx implements the exchange-rate graph (C10): a directed,
// bidirectional multigraph of currency conversion rates with temporal
// forward-fill lookup and transitive (multi-hop) conversion via breadth-
// first search (spec.md §4.10).
package fx

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/amfn/engine/amfnerr"
	"github.com/amfn/engine/caldate"
)

type pairKey struct{ From, To string }

// Graph is a temporal, bidirectional currency-rate graph. Adding a rate
// from A to B automatically adds the inverse rate from B to A, mirroring
// the teacher's PriceGraph. Unlike the teacher's graph, a pair's rate is
// tracked per date with forward-fill lookup (the most recent rate on or
// before the requested date), and an undirected adjacency index supports
// BFS pathfinding for currencies with no direct rate.
type Graph struct {
	ratesByPair map[pairKey]map[string]decimal.Decimal // dateKey -> rate
	datesByPair map[pairKey][]caldate.Date             // kept sorted ascending
	adjacency   map[string]map[string]bool
}

// NewGraph returns an empty exchange-rate graph.
func NewGraph() *Graph {
	return &Graph{
		ratesByPair: make(map[pairKey]map[string]decimal.Decimal),
		datesByPair: make(map[pairKey][]caldate.Date),
		adjacency:   make(map[string]map[string]bool),
	}
}

// AddRate records the conversion rate from `from` to `to` effective on
// date, and automatically records the inverse rate from `to` to `from`.
// A zero rate is rejected: it would produce a divide-by-zero inverse.
func (g *Graph) AddRate(date caldate.Date, from, to string, rate decimal.Decimal) error {
	if rate.IsZero() {
		return amfnerr.NewSchemaInvalid("fx: rate must be non-zero for %s->%s", from, to)
	}
	g.setRate(date, from, to, rate)
	g.setRate(date, to, from, decimal.NewFromInt(1).Div(rate))
	return nil
}

func (g *Graph) setRate(date caldate.Date, from, to string, rate decimal.Decimal) {
	key := pairKey{From: from, To: to}
	if g.ratesByPair[key] == nil {
		g.ratesByPair[key] = make(map[string]decimal.Decimal)
	}
	dateKey := date.String()
	if _, exists := g.ratesByPair[key][dateKey]; !exists {
		g.datesByPair[key] = append(g.datesByPair[key], date)
		sort.Slice(g.datesByPair[key], func(i, j int) bool {
			return g.datesByPair[key][i].Before(g.datesByPair[key][j])
		})
	}
	g.ratesByPair[key][dateKey] = rate

	if g.adjacency[from] == nil {
		g.adjacency[from] = make(map[string]bool)
	}
	g.adjacency[from][to] = true
}

// lookupDirect returns the forward-filled rate for (from, to) on or
// before date: the most recent rate recorded at or before that date.
func (g *Graph) lookupDirect(date caldate.Date, from, to string) (decimal.Decimal, bool) {
	key := pairKey{From: from, To: to}
	dates := g.datesByPair[key]
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i].After(date) {
			continue
		}
		if rate, ok := g.ratesByPair[key][dates[i].String()]; ok {
			return rate, true
		}
	}
	return decimal.Zero, false
}

// path returns a sequence of currency codes from `from` to `to` found by
// breadth-first search over the undirected adjacency index (spec.md
// §4.10's "transitive conversion"), or nil if none exists. The adjacency
// index is date-independent; the caller still resolves each hop's rate
// with forward-fill, so a path whose hops have no rate on or before the
// requested date still fails at conversion time.
func (g *Graph) path(from, to string) []string {
	if from == to {
		return []string{from}
	}

	type queueItem struct {
		node string
		path []string
	}
	queue := []queueItem{{node: from, path: []string{from}}}
	visited := map[string]bool{from: true}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for next := range g.adjacency[item.node] {
			if next == to {
				return append(item.path, next)
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, queueItem{node: next, path: append(append([]string{}, item.path...), next)})
		}
	}
	return nil
}

// Convert converts amount from one currency to another on date, using a
// direct rate if one exists, else a transitive path through the
// adjacency graph (spec.md §4.10). Same-currency conversion always
// returns amount unchanged. Returns NoExchangeRate if no path exists, or
// if a path exists but some hop has no rate recorded on or before date.
func (g *Graph) Convert(date caldate.Date, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := g.Rate(date, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// Rate returns the conversion rate from `from` to `to` effective on
// date, resolving a multi-hop path if no direct rate is recorded.
func (g *Graph) Rate(date caldate.Date, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	nodes := g.path(from, to)
	if nodes == nil {
		return decimal.Zero, amfnerr.NewNoExchangeRate(from, to)
	}

	result := decimal.NewFromInt(1)
	for i := 0; i < len(nodes)-1; i++ {
		rate, ok := g.lookupDirect(date, nodes[i], nodes[i+1])
		if !ok {
			return decimal.Zero, amfnerr.NewNoExchangeRate(nodes[i], nodes[i+1])
		}
		result = result.Mul(rate)
	}
	return result, nil
}
