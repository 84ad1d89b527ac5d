package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"fluxcore/internal/blob"
	"fluxcore/pkg/metnet"
)

const (
	modelKeyPrefix = "models/"
	modelKeySuffix = ".json"

	defaultCacheTTL = 30 * time.Minute
)

// envelope is the stored document shape: platform metadata wrapping the
// serialized network.
type envelope struct {
	OrganismID      string          `json:"organism_id"`
	BiomassReaction string          `json:"default_biomass_reaction"`
	Model           json.RawMessage `json:"model"`
}

// BlobStore loads model documents from blob storage under models/<id>.json
// and caches decoded wrappers with a TTL so repeated requests skip the
// fetch-and-decode cost.
type BlobStore struct {
	blobs blob.Store
	cache *ttlcache.Cache[string, *Wrapper]
}

// NewBlobStore wraps a blob store. ttl <= 0 selects the default cache TTL.
func NewBlobStore(blobs blob.Store, ttl time.Duration) *BlobStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache := ttlcache.New[string, *Wrapper](
		ttlcache.WithTTL[string, *Wrapper](ttl),
	)
	go cache.Start()
	return &BlobStore{blobs: blobs, cache: cache}
}

var _ Store = (*BlobStore)(nil)

// Get returns the canonical wrapper for the model id, loading and caching
// it on first use.
func (s *BlobStore) Get(ctx context.Context, id string) (*Wrapper, error) {
	if item := s.cache.Get(id); item != nil {
		return item.Value(), nil
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, w, ttlcache.DefaultTTL)
	return w, nil
}

// Preload decodes every stored model document into the cache.
func (s *BlobStore) Preload(ctx context.Context) error {
	infos, err := s.blobs.List(ctx, modelKeyPrefix)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, info := range infos {
		id := strings.TrimSuffix(strings.TrimPrefix(info.Key, modelKeyPrefix), modelKeySuffix)
		if id == "" {
			continue
		}
		if _, err := s.Get(ctx, id); err != nil {
			return fmt.Errorf("preload %s: %w", id, err)
		}
	}
	return nil
}

// Stop shuts down the cache expiration loop.
func (s *BlobStore) Stop() { s.cache.Stop() }

func (s *BlobStore) load(ctx context.Context, id string) (*Wrapper, error) {
	key := modelKeyPrefix + id + modelKeySuffix
	_, rc, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, metnet.NotFoundError{Kind: metnet.KindModel, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch model %s: %w", id, err)
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", id, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode model envelope %s: %w", id, err)
	}
	model, err := metnet.DecodeDocument(env.Model)
	if err != nil {
		return nil, fmt.Errorf("decode model %s: %w", id, err)
	}
	biomass := env.BiomassReaction
	if biomass == "" {
		if objs := model.Objective(); len(objs) > 0 {
			biomass = objs[0].ID
		}
	}
	return &Wrapper{Model: model, OrganismID: env.OrganismID, BiomassReaction: biomass}, nil
}
