package persistence

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/pigeon-pope/internal/engine"
)

// SaveData is the versioned session record the adapter stores.
type SaveData = engine.SaveState

// ErrSaveVersionMismatch means a stored save was written by an incompatible
// version. Callers treat it as "no save".
var ErrSaveVersionMismatch = errors.New("save version mismatch")

//go:embed save.schema.json
var saveSchemaJSON string

var (
	saveSchema = jsonschema.MustCompileString("save.schema.json", saveSchemaJSON)

	// EncodeAll and DecodeAll are safe for concurrent use.
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func encode(data SaveData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal save: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// decode unpacks a payload, checks its version and validates it. Plain JSON
// is accepted as well as zstd-compressed JSON.
func decode(payload []byte) (SaveData, error) {
	raw := payload
	if bytes.HasPrefix(payload, zstdMagic) {
		var err error
		if raw, err = decoder.DecodeAll(payload, nil); err != nil {
			return SaveData{}, fmt.Errorf("decompress save: %w", err)
		}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SaveData{}, fmt.Errorf("parse save: %w", err)
	}
	// The schema only describes the current version, so an older save is
	// reported as a mismatch before it can fail validation.
	if m, ok := doc.(map[string]any); ok {
		if v, ok := m["version"].(float64); ok && v != engine.SaveVersion {
			return SaveData{}, fmt.Errorf("%w: got %v, want %d", ErrSaveVersionMismatch, v, engine.SaveVersion)
		}
	}
	if err := saveSchema.Validate(doc); err != nil {
		return SaveData{}, fmt.Errorf("invalid save: %w", err)
	}

	data := engine.NewSaveState()
	if err := json.Unmarshal(raw, &data); err != nil {
		return SaveData{}, fmt.Errorf("decode save: %w", err)
	}
	return data, nil
}

// Export writes a save as zstd-compressed JSON.
func Export(w io.Writer, data SaveData) error {
	payload, err := encode(data)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Import reads a save written by Export, or a plain JSON save.
func Import(r io.Reader) (SaveData, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return SaveData{}, fmt.Errorf("read import: %w", err)
	}
	return decode(payload)
}
