package kmehandler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ruteri/pqkd-client/api"
)

var (
	ErrKeyNotFound   = errors.New("key not found")
	ErrKeyExists     = errors.New("key already exists")
	ErrPoolExhausted = errors.New("key pool exhausted")
)

// KeyPool holds keys issued by one device and not yet redeemed by its partner.
// Two simulated devices share a pool to model a QKD link: enc_keys on one side
// adds keys, dec_keys on the other side removes them.
type KeyPool struct {
	mu       sync.Mutex
	keys     map[string]string
	capacity uint32
}

// NewKeyPool creates a pool holding at most capacity unredeemed keys.
func NewKeyPool(capacity uint32) *KeyPool {
	return &KeyPool{
		keys:     make(map[string]string),
		capacity: capacity,
	}
}

// Issue creates keys of sizeBits bits. When ids is non-empty one key per id is
// created; otherwise number keys with fresh random ids.
func (p *KeyPool) Issue(sizeBits uint32, ids []string, number uint32) ([]api.KeyEntry, error) {
	if len(ids) == 0 {
		ids = make([]string, number)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if uint64(len(p.keys))+uint64(len(ids)) > uint64(p.capacity) {
		return nil, fmt.Errorf("%w: %d stored, %d requested", ErrPoolExhausted, len(p.keys), len(ids))
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, found := p.keys[id]; found {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, id)
		}
		seen[id] = struct{}{}
	}

	entries := make([]api.KeyEntry, 0, len(ids))
	for _, id := range ids {
		material := make([]byte, sizeBits/8)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate key material: %w", err)
		}
		entries = append(entries, api.KeyEntry{KeyID: id, Key: base64.StdEncoding.EncodeToString(material)})
	}
	for _, e := range entries {
		p.keys[e.KeyID] = e.Key
	}

	return entries, nil
}

// Redeem removes and returns the keys with the given ids, in the order given.
// Either all keys are redeemed or none.
func (p *KeyPool) Redeem(ids []string) ([]api.KeyEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]api.KeyEntry, 0, len(ids))
	for _, id := range ids {
		material, found := p.keys[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
		}
		entries = append(entries, api.KeyEntry{KeyID: id, Key: material})
	}
	for _, id := range ids {
		delete(p.keys, id)
	}

	return entries, nil
}

// Stored returns the number of unredeemed keys.
func (p *KeyPool) Stored() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(len(p.keys))
}

func (p *KeyPool) Capacity() uint32 {
	return p.capacity
}
