package store

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	if err := db.AutoMigrate(&Device{}, &Location{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindByDeviceID(id string) (*Device, error) {
	return s.findOne("device_id = ?", id)
}

func (s *PostgresStore) FindByIMEI(imei string) (*Device, error) {
	return s.findOne("imei = ?", imei)
}

func (s *PostgresStore) FindByDeviceIDPartial(fragment string) (*Device, error) {
	return s.findOne("device_id LIKE ?", "%"+fragment+"%")
}

func (s *PostgresStore) FindByIMEIPartial(fragment string) (*Device, error) {
	return s.findOne("imei LIKE ?", "%"+fragment+"%")
}

func (s *PostgresStore) findOne(query string, arg any) (*Device, error) {
	var device Device
	err := s.db.Where(query, arg).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "device lookup failed")
	}
	return &device, nil
}

func (s *PostgresStore) SaveDevice(device *Device) error {
	return errors.Wrap(s.db.Save(device).Error, "failed to save device")
}

func (s *PostgresStore) SaveLocation(location *Location) error {
	return errors.Wrap(s.db.Create(location).Error, "failed to save location")
}

// InTx scopes all mutations for one message to a single transaction.
func (s *PostgresStore) InTx(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx})
	})
}
