package db

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/giwty/steam-library-manager/settings"
	"go.uber.org/zap"
)

const (
	DB_INTERNAL_TABLENAME = "internal-metadata"
	DB_FILENAME           = "slm.db"
)

type PersistentDB struct {
	db *bolt.DB
}

func NewPersistentDB(baseFolder string) (*PersistentDB, error) {
	db, err := bolt.Open(filepath.Join(baseFolder, DB_FILENAME), 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}

	//set DB version
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(DB_INTERNAL_TABLENAME))
		if b == nil {
			b, err := tx.CreateBucket([]byte(DB_INTERNAL_TABLENAME))
			if b == nil || err != nil {
				return fmt.Errorf("create bucket: %s", err)
			}
			err = b.Put([]byte("app_version"), []byte(settings.SLM_VERSION))
			if err != nil {
				zap.S().Warnf("failed to save app_version - %v", err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PersistentDB{db: db}, nil
}

func (pd *PersistentDB) Close() {
	pd.db.Close()
}

func (pd *PersistentDB) ClearTable(tableName string) error {
	err := pd.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(tableName)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(tableName))
	})
	return err
}

func (pd *PersistentDB) AddEntry(tableName string, key string, value interface{}) error {
	var err error
	err = pd.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tableName))
		if b == nil {
			b, err = tx.CreateBucket([]byte(tableName))
			if b == nil || err != nil {
				return fmt.Errorf("create bucket: %s", err)
			}
		}
		var bytesBuff bytes.Buffer
		encoder := gob.NewEncoder(&bytesBuff)
		err := encoder.Encode(value)
		if err != nil {
			return err
		}
		err = b.Put([]byte(key), bytesBuff.Bytes())
		return err
	})
	return err
}

func (pd *PersistentDB) GetEntry(tableName string, key string, value interface{}) error {
	err := pd.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tableName))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		d := gob.NewDecoder(bytes.NewReader(v))
		return d.Decode(value)
	})
	return err
}

func (pd *PersistentDB) DeleteEntry(tableName string, key string) error {
	err := pd.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tableName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return err
}

// GetAllEntries returns the raw encoded values of a whole table, keyed by
// entry key. A missing table yields an empty map.
func (pd *PersistentDB) GetAllEntries(tableName string) (map[string][]byte, error) {
	entries := map[string][]byte{}
	err := pd.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tableName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			data := make([]byte, len(v))
			copy(data, v)
			entries[string(k)] = data
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceTable swaps the full content of a table in a single transaction.
func (pd *PersistentDB) ReplaceTable(tableName string, entries map[string]interface{}) error {
	err := pd.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(tableName)) != nil {
			if err := tx.DeleteBucket([]byte(tableName)); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket([]byte(tableName))
		if b == nil || err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		for key, value := range entries {
			var bytesBuff bytes.Buffer
			encoder := gob.NewEncoder(&bytesBuff)
			if err := encoder.Encode(value); err != nil {
				return err
			}
			if err := b.Put([]byte(key), bytesBuff.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func DecodeEntry(data []byte, value interface{}) error {
	d := gob.NewDecoder(bytes.NewReader(data))
	return d.Decode(value)
}
