package store

import (
	"strings"
	"sync"
)

// MemoryStore keeps devices and locations in memory. It backs tests and
// the no-database dev mode.
type MemoryStore struct {
	mu        sync.RWMutex
	devices   []*Device
	locations []*Location
	nextID    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) FindByDeviceID(id string) (*Device, error) {
	return s.find(func(d *Device) bool { return d.DeviceID == id })
}

func (s *MemoryStore) FindByIMEI(imei string) (*Device, error) {
	return s.find(func(d *Device) bool { return d.IMEI != "" && d.IMEI == imei })
}

func (s *MemoryStore) FindByDeviceIDPartial(fragment string) (*Device, error) {
	return s.find(func(d *Device) bool { return strings.Contains(d.DeviceID, fragment) })
}

func (s *MemoryStore) FindByIMEIPartial(fragment string) (*Device, error) {
	return s.find(func(d *Device) bool { return d.IMEI != "" && strings.Contains(d.IMEI, fragment) })
}

func (s *MemoryStore) find(match func(*Device) bool) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if match(d) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) SaveDevice(device *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.devices {
		if d.ID == device.ID {
			copied := *device
			s.devices[i] = &copied
			return nil
		}
	}
	if device.ID == 0 {
		device.ID = s.nextID
		s.nextID++
	}
	copied := *device
	s.devices = append(s.devices, &copied)
	return nil
}

func (s *MemoryStore) SaveLocation(location *Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *location
	copied.ID = s.nextID
	s.nextID++
	s.locations = append(s.locations, &copied)
	return nil
}

// Locations returns a snapshot for tests.
func (s *MemoryStore) Locations() []Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, *l)
	}
	return out
}

func (s *MemoryStore) InTx(fn func(tx Store) error) error {
	return fn(s)
}
