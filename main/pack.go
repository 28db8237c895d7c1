package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/pkg/compression"
	"github.com/rawbytedev/wirebuf/pkg/typereg"
	"github.com/rs/zerolog"
)

// Each packed file is one outer packet: a header dictionary followed by
// the file content as a compressed byte field.
const (
	keyID       = "id"
	keyName     = "name"
	keySize     = "size"
	keyModified = "modified"
)

type record struct {
	name     string
	modified time.Time
	data     []byte
}

func pack(w io.Writer, paths []string, opts wirebuf.Options, a compression.Algorithm, log zerolog.Logger) error {
	b := wirebuf.NewBuffer(opts)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pack %q: %w", path, err)
		}
		rec := record{name: filepath.Base(path), data: data}
		if info, err := os.Stat(path); err == nil {
			rec.modified = info.ModTime()
		}
		used, err := writeRecord(b, rec, a)
		if err != nil {
			return fmt.Errorf("pack %q: %w", path, err)
		}
		log.Info().Str("file", rec.name).Int("size", len(data)).Stringer("compression", used).Msg("packed")
		if _, err := b.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// writeRecord frames rec as one committed packet. On failure the partial
// packet is rolled back.
func writeRecord(b *wirebuf.Buffer, rec record, a compression.Algorithm) (compression.Algorithm, error) {
	start := b.StartWritePacket()
	header := typereg.Dict{
		keyID:       uuid.New(),
		keyName:     rec.name,
		keySize:     len(rec.data),
		keyModified: rec.modified,
	}
	if err := typereg.Default().WriteObject(b, header); err != nil {
		b.Rollback()
		return 0, err
	}
	used, err := compression.WriteBytes(b, rec.data, a)
	if err == nil {
		err = b.EndWritePacket(start)
	}
	if err != nil {
		b.Rollback()
		return 0, err
	}
	b.Commit()
	return used, nil
}
