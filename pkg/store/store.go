package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketFolders = []byte("folders")

var (
	ErrInvalidFolderName = errors.New("invalid folder name")
	ErrFolderExists      = errors.New("folder already exists")
	ErrFolderNotFound    = errors.New("folder not found")
	ErrInvalidURL        = errors.New("invalid url: must be http or https")
	ErrDuplicateURL      = errors.New("url already saved in this folder")
	ErrItemNotFound      = errors.New("item not found")
)

// Store persists folders in BoltDB, one key per folder holding its items as
// JSON. Every mutation runs in a single write transaction, so concurrent
// read-modify-write cycles never lose each other's updates.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFolders)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns a copy of every folder.
func (s *Store) Snapshot() (Folders, error) {
	var folders Folders
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		folders, err = readFolders(tx.Bucket(bucketFolders))
		return err
	})
	return folders, err
}

// Update loads every folder, lets fn modify the mapping in place and writes
// the result back in the same transaction. Folders removed from the mapping
// are deleted. Nothing is written when fn returns an error.
func (s *Store) Update(fn func(Folders) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFolders)
		folders, err := readFolders(b)
		if err != nil {
			return err
		}
		if err := fn(folders); err != nil {
			return err
		}
		return writeFolders(b, folders)
	})
}

func (s *Store) CreateFolder(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidFolderName
	}
	err := s.Update(func(f Folders) error {
		if _, ok := f[name]; ok {
			return fmt.Errorf("%q: %w", name, ErrFolderExists)
		}
		f[name] = []Item{}
		return nil
	})
	return name, err
}

// DeleteFolder removes the folder together with its items.
func (s *Store) DeleteFolder(name string) error {
	return s.Update(func(f Folders) error {
		if _, ok := f[name]; !ok {
			return fmt.Errorf("%q: %w", name, ErrFolderNotFound)
		}
		delete(f, name)
		return nil
	})
}

// EnsureDefaultFolder creates name when the store has no folder at all.
func (s *Store) EnsureDefaultFolder(name string) error {
	return s.Update(func(f Folders) error {
		if len(f) == 0 {
			f[name] = []Item{}
		}
		return nil
	})
}

// AddItem saves rawURL into folder, creating the folder if needed. The new
// item has no price information until its first successful check.
func (s *Store) AddItem(folder, rawURL, title string, at time.Time) (Item, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !ValidURL(rawURL) {
		return Item{}, fmt.Errorf("%q: %w", rawURL, ErrInvalidURL)
	}
	if strings.TrimSpace(folder) == "" {
		return Item{}, ErrInvalidFolderName
	}

	it := Item{
		URL:     rawURL,
		Title:   strings.TrimSpace(title),
		AddedAt: at.UnixMilli(),
	}
	err := s.Update(func(f Folders) error {
		if f.Find(folder, rawURL) >= 0 {
			return fmt.Errorf("%q in %q: %w", rawURL, folder, ErrDuplicateURL)
		}
		f[folder] = append(f[folder], it)
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Store) RemoveItem(folder, rawURL string) error {
	return s.Update(func(f Folders) error {
		i := f.Find(folder, rawURL)
		if i < 0 {
			return fmt.Errorf("%q in %q: %w", rawURL, folder, ErrItemNotFound)
		}
		f[folder] = append(f[folder][:i], f[folder][i+1:]...)
		return nil
	})
}

// Replace swaps the whole store content for folders.
func (s *Store) Replace(folders Folders) error {
	return s.Update(func(f Folders) error {
		for name := range f {
			delete(f, name)
		}
		for name, items := range folders {
			f[name] = items
		}
		return nil
	})
}

// ValidURL accepts absolute http and https URLs only.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func readFolders(b *bolt.Bucket) (Folders, error) {
	folders := make(Folders)
	err := b.ForEach(func(k, v []byte) error {
		var items []Item
		if err := json.Unmarshal(v, &items); err != nil {
			return fmt.Errorf("decoding folder %q: %w", k, err)
		}
		if items == nil {
			items = []Item{}
		}
		folders[string(k)] = items
		return nil
	})
	return folders, err
}

func writeFolders(b *bolt.Bucket, folders Folders) error {
	var stale [][]byte
	err := b.ForEach(func(k, _ []byte) error {
		if _, ok := folders[string(k)]; !ok {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}

	for name, items := range folders {
		if items == nil {
			items = []Item{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(name), data); err != nil {
			return err
		}
	}
	return nil
}
