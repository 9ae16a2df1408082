package store

// Store is what the bridge needs from the persistence layer. Lookups
// return (nil, nil) when no record matches. InTx runs fn against a
// transactional view; implementations without transactions run fn
// directly.
type Store interface {
	FindByDeviceID(id string) (*Device, error)
	FindByIMEI(imei string) (*Device, error)
	FindByDeviceIDPartial(fragment string) (*Device, error)
	FindByIMEIPartial(fragment string) (*Device, error)

	SaveDevice(device *Device) error
	SaveLocation(location *Location) error

	InTx(fn func(tx Store) error) error
}
