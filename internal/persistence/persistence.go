package persistence

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/markusressel/fanhold/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketSamples = "samples"
)

// Sample is the state of all sensors, groups and fans at a point in time.
type Sample struct {
	Time time.Time `json:"time"`
	// aggregated sensor values, nil if unavailable
	Sensors map[string]*float64 `json:"sensors"`
	// committed tier per group
	Groups map[string]int `json:"groups"`
	// measured speed per fan, nil if unavailable
	Fans map[string]*int `json:"fans"`
}

type Persistence interface {
	Init() error

	SaveSample(sample Sample) error
	// LoadSamples returns the samples in [from, to]. If there are more than limit samples,
	// they are thinned out evenly.
	LoadSamples(from time.Time, to time.Time, limit int) ([]Sample, error)
	// Prune deletes all samples older than before and returns their count.
	Prune(before time.Time) (int, error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// timeKey orders samples chronologically
func timeKey(t time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return key
}

func (p persistence) SaveSample(sample Sample) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketSamples))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put(timeKey(sample.Time), data)
	})
}

func (p persistence) LoadSamples(from time.Time, to time.Time, limit int) ([]Sample, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	samples := []Sample{}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSamples))
		if b == nil {
			return nil
		}
		first := timeKey(from)
		last := timeKey(to)

		count := 0
		c := b.Cursor()
		for k, _ := c.Seek(first); k != nil && bytes.Compare(k, last) <= 0; k, _ = c.Next() {
			count++
		}

		stride := 1
		if limit > 0 && count > limit {
			stride = (count + limit - 1) / limit
		}

		i := 0
		for k, v := c.Seek(first); k != nil && bytes.Compare(k, last) <= 0; k, v = c.Next() {
			if i%stride == 0 {
				var sample Sample
				if err := json.Unmarshal(v, &sample); err != nil {
					ui.Warning("Skipping corrupt history sample: %v", err)
				} else {
					samples = append(samples, sample)
				}
			}
			i++
		}
		return nil
	})
	return samples, err
}

func (p persistence) Prune(before time.Time) (int, error) {
	db, err := p.openPersistence()
	if err != nil {
		return 0, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	pruned := 0
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSamples))
		if b == nil {
			return nil
		}
		limit := timeKey(before)
		// deleting while iterating a cursor skips keys
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && bytes.Compare(k, limit) < 0; k, _ = c.Next() {
			keys = append(keys, append([]byte{}, k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
			pruned++
		}
		return nil
	})
	return pruned, err
}
