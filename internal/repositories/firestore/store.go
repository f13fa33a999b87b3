// Package firestore is a KVStore backed by one Firestore collection.
package firestore

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	pfirestore "github.com/MahmoudAkram21/tiamo/internal/platform/firestore"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

const defaultCollection = "storefrontStorage"

type entryDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Store keeps each key as a document whose id is the path-escaped key.
type Store struct {
	provider   *pfirestore.Provider
	collection string
	now        func() time.Time
}

var _ repositories.KVStore = (*Store)(nil)

// NewStore constructs a Firestore-backed store.
func NewStore(provider *pfirestore.Provider, collection string) (*Store, error) {
	if provider == nil {
		return nil, errors.New("firestore store requires firestore provider")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	return &Store{provider: provider, collection: collection, now: time.Now}, nil
}

// DocumentID maps a storage key onto a valid Firestore document id.
func DocumentID(key string) string {
	return url.PathEscape(key)
}

func (s *Store) doc(ctx context.Context, key string) (*firestore.DocumentRef, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, repositories.NewUnavailableError("firestore.client", key, err)
	}
	return client.Collection(s.collection).Doc(DocumentID(key)), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ref, err := s.doc(ctx, key)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, pfirestore.Classify("firestore.get", key, err)
	}
	var doc entryDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, repositories.NewCorruptError("firestore.get", key, err)
	}
	return []byte(doc.Value), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	ref, err := s.doc(ctx, key)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, entryDocument{Value: string(value), UpdatedAt: s.now().UTC()})
	return pfirestore.Classify("firestore.set", key, err)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ref, err := s.doc(ctx, key)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return pfirestore.Classify("firestore.delete", key, err)
}

// Ping confirms the client can be created and the collection listed.
func (s *Store) Ping(ctx context.Context) error {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	_, err = iter.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return pfirestore.Classify("firestore.ping", s.collection, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}
