package bee

import (
	"errors"
	"fmt"
)

const (
	DefaultHashMapRows       = 20
	DefaultHashMapMaxObjects = 200
	DefaultHashMapLoadFactor = 0.75
	DefaultHashMapGrowFactor = 10
)

var ErrKeyNotFound = errors.New("key not found")
var ErrBadGrowFactor = errors.New("grow factor must be greater than 1")

// RehashGen is the two valued rehash generation tag.
type RehashGen uint8

const (
	RehashA RehashGen = iota
	RehashB
)

func (g RehashGen) flip() RehashGen {
	if g == RehashA {
		return RehashB
	}
	return RehashA
}

func (g RehashGen) String() string {
	if g == RehashA {
		return "A"
	}
	return "B"
}

type kvEntry struct {
	key   string
	value Ref
	gen   RehashGen
	next  *kvEntry
}

// HashMap is an open hashing map from string keys to object
// references, backing the dict type. Within one bucket chain keys
// are unique. The map holds references only; it never frees values.
type HashMap struct {
	rows       []*kvEntry
	count      int
	maxObjects int
	gen        RehashGen

	// NoAutoGrow turns off growth on Put past the load factor.
	NoAutoGrow bool
}

func NewHashMap(totalRows, maxObjects int) *HashMap {
	if totalRows < 1 {
		totalRows = DefaultHashMapRows
	}
	if maxObjects < 1 {
		maxObjects = DefaultHashMapMaxObjects
	}
	return &HashMap{
		rows:       make([]*kvEntry, totalRows),
		maxObjects: maxObjects,
		gen:        RehashA,
	}
}

// MurmurOAAT64 is the 64-bit one-at-a-time murmur style mix used to
// place keys. Bytes are sign extended first, as a C char would be.
func MurmurOAAT64(key string) uint64 {
	h := uint64(525201411107845655)
	for i := 0; i < len(key); i++ {
		h ^= uint64(int64(int8(key[i])))
		h *= 0x5bd1e9955bd1e995
		h ^= h >> 47
	}
	return h
}

func (m *HashMap) index(key string) int {
	return int(MurmurOAAT64(key) % uint64(len(m.rows)))
}

func (m *HashMap) Len() int              { return m.count }
func (m *HashMap) Rows() int             { return len(m.rows) }
func (m *HashMap) MaxObjects() int       { return m.maxObjects }
func (m *HashMap) Generation() RehashGen { return m.gen }

// Put inserts or replaces key. A replaced entry keeps its position
// in the chain and takes the current generation tag.
func (m *HashMap) Put(key string, value Ref) {
	i := m.index(key)
	var last *kvEntry
	for e := m.rows[i]; e != nil; e = e.next {
		if e.key == key {
			e.value = value
			e.gen = m.gen
			return
		}
		last = e
	}

	entry := &kvEntry{key: key, value: value, gen: m.gen}
	if last == nil {
		m.rows[i] = entry
	} else {
		last.next = entry
	}
	m.count++

	if !m.NoAutoGrow && float64(m.count) > float64(m.maxObjects)*DefaultHashMapLoadFactor {
		panicOn(m.Grow(DefaultHashMapGrowFactor))
	}
}

// Get returns the value stored under exactly key.
func (m *HashMap) Get(key string) (Ref, bool) {
	for e := m.rows[m.index(key)]; e != nil; e = e.next {
		if e.key == key {
			return e.value, true
		}
	}
	return Ref{}, false
}

// Delete unlinks key from its chain.
func (m *HashMap) Delete(key string) error {
	i := m.index(key)
	var prev *kvEntry
	for e := m.rows[i]; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				m.rows[i] = e.next
			} else {
				prev.next = e.next
			}
			e.next = nil
			m.count--
			return nil
		}
		prev = e
	}
	return ErrKeyNotFound
}

// Grow widens the bucket array to factor times its size, raises the
// object limit by the same factor, and rehashes.
func (m *HashMap) Grow(factor int) error {
	if factor <= 1 {
		return fmt.Errorf("Grow(%d): %w", factor, ErrBadGrowFactor)
	}
	VPrintf("hashmap grow: objects=%d rows %d -> %d", m.count, len(m.rows), len(m.rows)*factor)

	rows := make([]*kvEntry, len(m.rows)*factor)
	copy(rows, m.rows)
	m.rows = rows
	m.maxObjects *= factor
	m.rehash()
	return nil
}

// rehash flips the generation and makes one pass over every chain,
// moving each entry still carrying the old tag to the chain its key
// hashes to under the current row count. Moved entries take the new
// tag, so meeting one again later in the pass leaves it alone.
func (m *HashMap) rehash() {
	m.gen = m.gen.flip()
	for ri := range m.rows {
		var prev *kvEntry
		for e := m.rows[ri]; e != nil; {
			next := e.next
			if e.gen == m.gen {
				prev = e
				e = next
				continue
			}
			if prev == nil {
				m.rows[ri] = next
			} else {
				prev.next = next
			}
			e.next = nil
			e.gen = m.gen
			m.appendEntry(e)
			e = next
		}
	}
}

func (m *HashMap) appendEntry(entry *kvEntry) {
	i := m.index(entry.key)
	if m.rows[i] == nil {
		m.rows[i] = entry
		return
	}
	e := m.rows[i]
	for e.next != nil {
		e = e.next
	}
	e.next = entry
}

// Each visits entries in bucket order; return false to stop.
func (m *HashMap) Each(fn func(key string, value Ref) bool) {
	for _, e := range m.rows {
		for ; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Keys lists keys in bucket order.
func (m *HashMap) Keys() []string {
	keys := make([]string, 0, m.count)
	m.Each(func(key string, _ Ref) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
