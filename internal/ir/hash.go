package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent  = "activeset/event/v1"
	DomainPreset = "activeset/preset/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of a recorded event.
//
// Time is excluded: the ID names what happened in which engine at which
// logical position, so a replay under a different clock yields the same IDs.
func EventID(rec EventRecord) (string, error) {
	obj := Object{
		"engine_id":       String(rec.EngineID),
		"seq":             Int(rec.Seq),
		"type":            String(rec.Type),
		"values":          nonNilArray(rec.Values),
		"indexes":         intArray(rec.Indexes),
		"evicted_values":  nonNilArray(rec.EvictedValues),
		"evicted_indexes": intArray(rec.EvictedIndexes),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// PresetHash computes the content hash of a compiled preset. Two presets
// with the same hash configure identical engines.
func PresetHash(p PresetSpec) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("PresetHash: %w", err)
	}
	v, err := decodeValue(data, true)
	if err != nil {
		return "", fmt.Errorf("PresetHash: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("PresetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPreset, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(rec EventRecord) string {
	id, err := EventID(rec)
	if err != nil {
		panic(err)
	}
	return id
}

func nonNilArray(a Array) Array {
	if a == nil {
		return Array{}
	}
	return a
}

func intArray(is []int64) Array {
	arr := make(Array, len(is))
	for i, n := range is {
		arr[i] = Int(n)
	}
	return arr
}
