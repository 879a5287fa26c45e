package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/gcbaptista/go-concordance-engine/model"
)

// TextStore holds the texts of one corpus. Texts are addressed internally by
// a dense uint32 ID so that index postings stay small.
type TextStore struct {
	Mu                     sync.RWMutex
	Texts                  map[uint32]model.Text // Internal ID to full text
	ExternalIDtoInternalID map[string]uint32     // User-provided ID to internal uint32 ID
	NextID                 uint32
}

// gobTextStoreData is the gob form of TextStore, without the mutex.
type gobTextStoreData struct {
	Texts                  map[uint32]model.Text
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
}

// NewTextStore returns an empty store.
func NewTextStore() *TextStore {
	return &TextStore{
		Texts:                  make(map[uint32]model.Text),
		ExternalIDtoInternalID: make(map[string]uint32),
	}
}

// Put stores text under a fresh internal ID, replacing any text with the same
// external ID. It returns the new internal ID and, when a text was replaced,
// the old one. The caller must hold Mu.
func (ts *TextStore) Put(text model.Text) (id uint32, oldID uint32, replaced bool) {
	oldID, replaced = ts.ExternalIDtoInternalID[text.ID]
	if replaced {
		delete(ts.Texts, oldID)
	}
	id = ts.NextID
	ts.NextID++
	ts.Texts[id] = text
	ts.ExternalIDtoInternalID[text.ID] = id
	return id, oldID, replaced
}

// Remove deletes the text with the given external ID and returns its internal
// ID. The caller must hold Mu.
func (ts *TextStore) Remove(externalID string) (uint32, bool) {
	id, ok := ts.ExternalIDtoInternalID[externalID]
	if !ok {
		return 0, false
	}
	delete(ts.Texts, id)
	delete(ts.ExternalIDtoInternalID, externalID)
	return id, true
}

// Clear removes every text. NextID keeps counting so stale postings can never
// alias a new text. The caller must hold Mu.
func (ts *TextStore) Clear() {
	ts.Texts = make(map[uint32]model.Text)
	ts.ExternalIDtoInternalID = make(map[string]uint32)
}

// Get returns the text with the given external ID.
func (ts *TextStore) Get(externalID string) (model.Text, bool) {
	ts.Mu.RLock()
	defer ts.Mu.RUnlock()
	id, ok := ts.ExternalIDtoInternalID[externalID]
	if !ok {
		return model.Text{}, false
	}
	text, ok := ts.Texts[id]
	return text, ok
}

// IDs returns the internal IDs in insertion order. The caller must hold Mu.
func (ts *TextStore) IDs() []uint32 {
	ids := make([]uint32, 0, len(ts.Texts))
	for id := range ts.Texts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of stored texts.
func (ts *TextStore) Len() int {
	ts.Mu.RLock()
	defer ts.Mu.RUnlock()
	return len(ts.Texts)
}

// GobEncode implements the gob.GobEncoder interface for TextStore.
func (ts *TextStore) GobEncode() ([]byte, error) {
	ts.Mu.RLock()
	defer ts.Mu.RUnlock()

	dataToEncode := gobTextStoreData{
		Texts:                  ts.Texts,
		ExternalIDtoInternalID: ts.ExternalIDtoInternalID,
		NextID:                 ts.NextID,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode text store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for TextStore.
func (ts *TextStore) GobDecode(data []byte) error {
	decodedData := gobTextStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode text store data: %w", err)
	}

	ts.Mu.Lock()
	defer ts.Mu.Unlock()

	ts.Texts = decodedData.Texts
	ts.ExternalIDtoInternalID = decodedData.ExternalIDtoInternalID
	ts.NextID = decodedData.NextID

	// Ensure maps are initialized if they were nil after decoding
	if ts.Texts == nil {
		ts.Texts = make(map[uint32]model.Text)
	}
	if ts.ExternalIDtoInternalID == nil {
		ts.ExternalIDtoInternalID = make(map[string]uint32)
	}
	return nil
}
