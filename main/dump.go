package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawbytedev/wirebuf"
	"github.com/rawbytedev/wirebuf/pkg/compression"
	"github.com/rawbytedev/wirebuf/pkg/typereg"
	"github.com/rawbytedev/wirebuf/pkg/wiremetrics"
	"github.com/rs/zerolog"
)

const fillChunk = 64 << 10

type dumpOptions struct {
	extractDir string
	metrics    bool
}

func dumpFiles(paths []string, opts wirebuf.Options, d dumpOptions, log zerolog.Logger) error {
	var reg *prometheus.Registry
	if d.metrics {
		reg = prometheus.NewRegistry()
		c := wiremetrics.NewCollector("wirecat")
		c.Register(reg)
		opts.Observer = c.For("dump")
		defer logMetrics(reg, log)
	}
	if len(paths) == 0 {
		_, err := dump(os.Stdin, opts, d, log)
		return err
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		n, err := dump(f, opts, d, log)
		f.Close()
		if err != nil {
			return fmt.Errorf("dump %q: %w", path, err)
		}
		log.Info().Str("stream", path).Int("packets", n).Msg("verified")
	}
	return nil
}

// dump walks a packet stream, reading r in chunks and decoding every
// complete packet. Bytes left over at EOF mean the stream was truncated.
func dump(r io.Reader, opts wirebuf.Options, d dumpOptions, log zerolog.Logger) (int, error) {
	b := wirebuf.NewBuffer(opts)
	count := 0
	for {
		b.Shift()
		_, readErr := b.Fill(r, fillChunk)
		for {
			var rec record
			ok, err := b.TryReadPacket(func(p *wirebuf.Buffer) error {
				var err error
				rec, err = readRecord(p)
				return err
			})
			if err != nil {
				return count, err
			}
			if !ok {
				break
			}
			count++
			log.Info().Str("file", rec.name).Int("size", len(rec.data)).
				Time("modified", rec.modified).Msg("packet")
			if d.extractDir != "" {
				dst := filepath.Join(d.extractDir, filepath.Base(rec.name))
				if err := os.WriteFile(dst, rec.data, 0o644); err != nil {
					return count, err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			if n := b.Count(); n > 0 {
				return count, fmt.Errorf("%w: %d trailing bytes", io.ErrUnexpectedEOF, n)
			}
			return count, nil
		}
		if readErr != nil {
			return count, readErr
		}
	}
}

func readRecord(b *wirebuf.Buffer) (record, error) {
	header, err := typereg.Read[typereg.Dict](typereg.Default(), b)
	if err != nil {
		return record{}, err
	}
	data, err := compression.ReadBytes(b)
	if err != nil {
		return record{}, err
	}
	rec := record{data: data}
	rec.name, _ = header[keyName].(string)
	rec.modified, _ = header[keyModified].(time.Time)
	if size, ok := header[keySize].(int); ok && size != len(data) {
		return record{}, fmt.Errorf("%s: header size %d, content %d bytes", rec.name, size, len(data))
	}
	return rec, nil
}

func logMetrics(reg *prometheus.Registry, log zerolog.Logger) {
	families, err := reg.Gather()
	if err != nil {
		log.Warn().Err(err).Msg("gather metrics")
		return
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				log.Info().Str("metric", f.GetName()).Float64("value", m.GetCounter().GetValue()).Msg("counter")
			case m.GetGauge() != nil:
				log.Info().Str("metric", f.GetName()).Float64("value", m.GetGauge().GetValue()).Msg("gauge")
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				log.Info().Str("metric", f.GetName()).Uint64("count", h.GetSampleCount()).
					Float64("sum", h.GetSampleSum()).Msg("histogram")
			}
		}
	}
}
