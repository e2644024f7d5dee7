package modelstore

import (
	"go.uber.org/zap"
)

const progressChunk = 16 << 20

// progressLogger logs every 10% of a known-size download, or every 16 MiB
// when the size is unknown.
type progressLogger struct {
	logger  *zap.Logger
	file    string
	total   int64
	written int64
	next    int64
}

func newProgressLogger(logger *zap.Logger, file string, total int64) *progressLogger {
	p := &progressLogger{logger: logger, file: file, total: total}
	p.next = p.step()
	return p
}

func (p *progressLogger) step() int64 {
	if p.total > 0 {
		if s := p.total / 10; s > 0 {
			return s
		}
		return p.total
	}
	return progressChunk
}

func (p *progressLogger) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	for p.written >= p.next {
		fields := []zap.Field{zap.String("file", p.file), zap.Int64("bytes", p.next)}
		if p.total > 0 {
			fields = append(fields, zap.Int64("percent", p.next*100/p.total))
		}
		p.logger.Info("download progress", fields...)
		p.next += p.step()
	}
	return len(b), nil
}
