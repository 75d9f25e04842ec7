package localdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"lyriclab-api-go/logcolors"
)

const bucketName = "library"

// Storage keys for the song library. Kept as flat keys in one bucket so the
// whole library is a handful of JSON blobs.
const (
	KeySongs         = "lyrics_app_songs"
	KeyCurrentSongID = "lyrics_app_current_song_id"
	KeyUser          = "lyriclab_user"
	KeySettings      = "lyrics_app_settings"
	KeyDarkMode      = "lyrics_app_dark_mode"
)

// Store wraps BoltDB with an in-memory front for fast reads. Every value is
// a string; with compression enabled values are stored gzipped.
type Store struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// entry is a stored value, possibly compressed.
type entry struct {
	Value string `json:"value"`
}

// Open opens (or creates) the library database and preloads it into memory.
func Open(dbPath string, backupPath string, compressionEnabled bool) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %v", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create library bucket: %v", err)
	}

	s := &Store{
		db:                 db,
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}

	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload library to memory: %v", logcolors.LogStorage, err)
	}

	log.Infof("%s Library opened at %s (compression: %v)", logcolors.LogStorage, dbPath, compressionEnabled)
	return s, nil
}

func (s *Store) loadToMemory() error {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				log.Warnf("%s Failed to unmarshal library entry %s: %v", logcolors.LogStorage, string(k), err)
				return nil
			}
			s.memCache.Store(string(k), e)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}
	logcolors.StorageInfof("Loaded %d library entries from disk", count)
	return nil
}

// Get retrieves a value, checking memory first and falling back to disk.
func (s *Store) Get(key string) (string, bool) {
	if v, ok := s.memCache.Load(key); ok {
		return s.decode(key, v.(entry).Value)
	}

	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key not found")
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		value = e.Value
		s.memCache.Store(key, e)
		return nil
	})
	if err != nil {
		return "", false
	}
	return s.decode(key, value)
}

func (s *Store) decode(key, value string) (string, bool) {
	if !s.compressionEnabled {
		return value, true
	}
	decompressed, err := decompressValue(value)
	if err != nil {
		log.Errorf("%s Error decompressing library value for key %s: %v", logcolors.LogStorage, key, err)
		return "", false
	}
	return decompressed, true
}

// Set stores a value in memory and on disk.
func (s *Store) Set(key, value string) error {
	finalValue := value
	if s.compressionEnabled {
		compressed, err := compressValue(value)
		if err != nil {
			log.Errorf("%s Error compressing library value for key %s: %v", logcolors.LogStorage, key, err)
			return err
		}
		finalValue = compressed
	}

	e := entry{Value: finalValue}
	s.memCache.Store(key, e)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	s.memCache.Delete(key)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
}

// GetJSON unmarshals the stored value at key into out.
func (s *Store) GetJSON(key string, out any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Errorf("%s Failed to decode library value for key %s: %v", logcolors.LogStorage, key, err)
		return false
	}
	return true
}

// SetJSON marshals v and stores it at key.
func (s *Store) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode library value for key %s: %v", key, err)
	}
	return s.Set(key, string(raw))
}

// Stats returns the number of keys and approximate stored size in KB.
func (s *Store) Stats() (numKeys int, sizeInKB int) {
	s.memCache.Range(func(k, v interface{}) bool {
		e := v.(entry)
		numKeys++
		sizeInKB += len(k.(string)) + len(e.Value)
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Backup copies the database file into the backup directory and returns the
// backup path. The database is closed during the copy so the file is
// consistent.
func (s *Store) Backup() (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	backupFileName := fmt.Sprintf("library_backup_%s.db", timestamp)
	backupFilePath := filepath.Join(s.backupPath, backupFileName)

	log.Infof("%s Creating backup at: %s", logcolors.LogStorage, backupFilePath)

	if err := s.db.Close(); err != nil {
		return "", fmt.Errorf("failed to close database for backup: %v", err)
	}

	if err := copyFile(s.dbPath, backupFilePath); err != nil {
		s.reopenDatabase()
		return "", fmt.Errorf("failed to copy database file: %v", err)
	}

	if err := s.reopenDatabase(); err != nil {
		return "", fmt.Errorf("failed to reopen database after backup: %v", err)
	}

	log.Infof("%s Backup created: %s", logcolors.LogStorage, backupFilePath)
	return backupFilePath, nil
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns all available backup files.
func (s *Store) ListBackups() ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %v", err)
	}

	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".db" {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			log.Warnf("%s Failed to get info for %s: %v", logcolors.LogStorage, ent.Name(), err)
			continue
		}
		backups = append(backups, BackupInfo{
			FileName:  ent.Name(),
			FilePath:  filepath.Join(s.backupPath, ent.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return backups, nil
}

// RestoreFromBackup replaces the current library with a backup file. The
// current database is kept aside until the restored copy is in place.
func (s *Store) RestoreFromBackup(backupFileName string) error {
	backupFilePath := filepath.Join(s.backupPath, backupFileName)

	if filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("invalid backup file: must be a .db file")
	}
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}

	log.Infof("%s Restoring library from backup: %s", logcolors.LogStorage, backupFileName)

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close current database: %v", err)
	}

	currentBackupPath := s.dbPath + ".pre-restore"
	if err := copyFile(s.dbPath, currentBackupPath); err != nil {
		s.reopenDatabase()
		return fmt.Errorf("failed to back up current database: %v", err)
	}

	if err := copyFile(backupFilePath, s.dbPath); err != nil {
		copyFile(currentBackupPath, s.dbPath)
		s.reopenDatabase()
		return fmt.Errorf("failed to restore backup: %v", err)
	}
	os.Remove(currentBackupPath)

	if err := s.reopenDatabase(); err != nil {
		return fmt.Errorf("failed to reopen database after restore: %v", err)
	}

	log.Infof("%s Restored library from backup: %s", logcolors.LogStorage, backupFileName)
	return nil
}

func (s *Store) reopenDatabase() error {
	db, err := bolt.Open(s.dbPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %v", err)
	}
	s.db = db

	s.memCache.Range(func(k, _ interface{}) bool {
		s.memCache.Delete(k)
		return true
	})
	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to reload library to memory: %v", logcolors.LogStorage, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
