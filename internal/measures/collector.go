// Package measures counts cache activity for observability.
// Nothing in the cache reads these values back to make decisions.
package measures

type Collector interface {
	IncGetAttempts()
	IncMisses()
	IncEvictions()
}

type nopCollector struct{}

func (nopCollector) IncGetAttempts() {}
func (nopCollector) IncMisses()      {}
func (nopCollector) IncEvictions()   {}

func NewNopCollector() Collector {
	return nopCollector{}
}

type multiCollector []Collector

func (m multiCollector) IncGetAttempts() {
	for _, c := range m {
		c.IncGetAttempts()
	}
}

func (m multiCollector) IncMisses() {
	for _, c := range m {
		c.IncMisses()
	}
}

func (m multiCollector) IncEvictions() {
	for _, c := range m {
		c.IncEvictions()
	}
}

// Multi returns a collector that forwards to all non-nil collectors
func Multi(collectors ...Collector) Collector {
	m := make(multiCollector, 0, len(collectors))
	for _, c := range collectors {
		if c != nil {
			m = append(m, c)
		}
	}
	return m
}
