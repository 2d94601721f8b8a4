package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/verdantio/carbonledger/internal/domain"
)

// date is a shorthand for a UTC calendar day.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

// testMetric returns a country metric snapshot with a representative
// factor set.
func testMetric(country string, validFrom time.Time) domain.CountryMetric {
	return domain.CountryMetric{
		ID:        country + "-" + validFrom.Format("2006"),
		CountryID: country,
		ValidFrom: validFrom,
		Electricity: domain.ElectricityFactors{
			Default: ptr(0.5),
		},
		Heating: domain.FactorTable{
			"naturalGas":     0.2,
			"oil":            0.3,
			"wasteTreatment": 0.15,
		},
		Transportation: map[domain.VehicleType]domain.FactorTable{
			domain.VehicleFuelCar: {
				"1": 0.25, "2": 0.125, "3": 0.085, "4": 0.0625, "5": 0.05,
			},
			domain.VehicleMotorcycle: {
				"1": 0.1, "2": 0.05,
			},
			domain.VehiclePlane: {
				"1": 1100,
			},
			domain.VehicleBus: {
				"almostEmpty": 0.1, "medium": 0.06, "nearlyFull": 0.03, "1": 0.08,
			},
		},
		TransportationEnergy: map[domain.VehicleType]domain.FactorTable{
			domain.VehicleFuelCar: {
				"1": 0.9, "2": 0.45, "3": 0.31, "4": 0.225, "5": 0.18,
			},
			domain.VehicleMotorcycle: {
				"1": 0.4, "2": 0.2,
			},
			domain.VehiclePlane: {
				"1": 4000,
			},
			domain.VehicleBus: {
				"almostEmpty": 0.35, "medium": 0.2, "nearlyFull": 0.11, "1": 0.3,
			},
		},
	}
}

// memStore is an in-memory Storage for engine tests. List and Put
// round-trip documents through JSON so callers never share pointers
// with the stored state, matching a real document store.
type memStore struct {
	mu sync.Mutex

	users        map[string]domain.User
	consumptions map[string]*domain.Consumption
	metrics      map[string][]domain.CountryMetric
	labels       map[string]domain.LabelStructure
	summaries    map[string]map[int]*domain.ConsumptionSummary

	putConsumptions int
	putSummaries    int
	putUsers        int
	deleteSummaries int
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]domain.User{},
		consumptions: map[string]*domain.Consumption{},
		metrics:      map[string][]domain.CountryMetric{},
		labels:       map[string]domain.LabelStructure{},
		summaries:    map[string]map[int]*domain.ConsumptionSummary{},
	}
}

func deepCopy[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

func (m *memStore) ListCountryMetrics(_ context.Context, countryID string) ([]domain.CountryMetric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return deepCopy(m.metrics[countryID]), nil
}

func (m *memStore) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundf("user %s", id)
	}
	return u, nil
}

func (m *memStore) PutUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.putUsers++
	return nil
}

func (m *memStore) PutConsumption(_ context.Context, c *domain.Consumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumptions[c.ID] = deepCopy(c)
	m.putConsumptions++
	return nil
}

func (m *memStore) ListConsumptions(_ context.Context, userID string) ([]*domain.Consumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Consumption
	for _, c := range m.consumptions {
		if c.UserID == userID {
			out = append(out, deepCopy(c))
		}
	}
	return out, nil
}

func (m *memStore) GetLabelStructure(_ context.Context, countryID string) (domain.LabelStructure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.labels[countryID]
	if !ok {
		return domain.LabelStructure{}, domain.NotFoundf("label structure for country %s", countryID)
	}
	return deepCopy(ls), nil
}

func (m *memStore) ListSummaries(_ context.Context, userID string) ([]*domain.ConsumptionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ConsumptionSummary
	for _, s := range m.summaries[userID] {
		out = append(out, deepCopy(s))
	}
	return out, nil
}

func (m *memStore) PutSummary(_ context.Context, s *domain.ConsumptionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summaries[s.UserID] == nil {
		m.summaries[s.UserID] = map[int]*domain.ConsumptionSummary{}
	}
	m.summaries[s.UserID][s.Year] = deepCopy(s)
	m.putSummaries++
	return nil
}

func (m *memStore) DeleteSummary(_ context.Context, userID string, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.summaries[userID], year)
	m.deleteSummaries++
	return nil
}

func (m *memStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putConsumptions + m.putSummaries + m.putUsers + m.deleteSummaries
}
