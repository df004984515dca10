package session

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/saptapadi/admin-gateway/rbac"
)

const (
	sessionBucket = "session"

	keyAccessToken  = "token"
	keyRefreshToken = "refresh_token"
	keyAdminMarker  = "is_admin"
	keyAdminInfo    = "admin_info"
)

// BoltStore persists the session in an embedded bbolt file, the service-side
// equivalent of the front end's per-browser-profile storage. Each mutation
// runs in a single write transaction, so token pairs are replaced atomically
// and Clear is all-or-nothing.
type BoltStore struct {
	db     *bolt.DB
	logger zerolog.Logger
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the session database at path.
func NewBoltStore(path string, logger zerolog.Logger) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "[NewBoltStore] opening session db")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[NewBoltStore] creating session bucket")
	}

	return &BoltStore{db: db, logger: logger}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Read returns the stored session. Corrupt persisted data is treated as
// "logged out" rather than surfaced as an error.
func (s *BoltStore) Read() Session {
	var (
		sess    Session
		corrupt bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return nil
		}

		sess.AccessToken = string(b.Get([]byte(keyAccessToken)))
		sess.RefreshToken = string(b.Get([]byte(keyRefreshToken)))

		info := b.Get([]byte(keyAdminInfo))
		if len(info) == 0 {
			return nil
		}

		var identity Identity
		if err := json.Unmarshal(info, &identity); err != nil {
			s.logger.Warn().Err(err).Msg("corrupt admin identity record, treating session as logged out")
			corrupt = true
			return nil
		}

		sess.Identity = identity
		if string(b.Get([]byte(keyAdminMarker))) == "true" {
			sess.Role = rbac.ParseRole(identity.Role)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("session read failed, treating session as logged out")
		return Session{}
	}
	if corrupt {
		return Session{}
	}
	return sess
}

func (s *BoltStore) Write(pair TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return errors.New("[BoltStore.Write] tokens are issued as a pair")
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if err := b.Put([]byte(keyAccessToken), []byte(pair.AccessToken)); err != nil {
			return err
		}
		return b.Put([]byte(keyRefreshToken), []byte(pair.RefreshToken))
	})
	return errors.Wrap(err, "[BoltStore.Write] storing token pair")
}

func (s *BoltStore) SetIdentity(identity Identity) error {
	info, err := json.Marshal(identity)
	if err != nil {
		return errors.Wrap(err, "[BoltStore.SetIdentity] marshalling identity")
	}

	marker := []byte("false")
	if rbac.ParseRole(identity.Role) != rbac.RoleNone {
		marker = []byte("true")
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if err := b.Put([]byte(keyAdminInfo), info); err != nil {
			return err
		}
		return b.Put([]byte(keyAdminMarker), marker)
	})
	return errors.Wrap(err, "[BoltStore.SetIdentity] storing identity")
}

func (s *BoltStore) Clear() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(sessionBucket))
		return err
	})
	return errors.Wrap(err, "[BoltStore.Clear] clearing session")
}

func (s *BoltStore) Role() rbac.Role {
	return s.Read().Role
}
