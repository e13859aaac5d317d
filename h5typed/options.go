package h5typed

import "github.com/sirupsen/logrus"

// DefaultDeflateLevel is the gzip level used when deflate is requested
// without an explicit level.
const DefaultDeflateLevel = 6

// compactThreshold is the byte size below which new datasets default to
// the compact layout.
const compactThreshold = 256

// FileOption configures file opening and creation.
type FileOption func(*fileOptions)

type fileOptions struct {
	latestFormat bool
	logger       logrus.FieldLogger
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{}
}

// WithLatestFormat makes the writer use the newest on-disk format the
// binding supports. External links require it.
func WithLatestFormat() FileOption {
	return func(o *fileOptions) {
		o.latestFormat = true
	}
}

// WithLogger attaches a structured logger. Datatype commits, overwrite
// decisions and cleanup failures are logged at Debug/Warn level. Without
// it the file is silent.
func WithLogger(logger logrus.FieldLogger) FileOption {
	return func(o *fileOptions) {
		o.logger = logger
	}
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	chunks       []uint64
	extendable   bool
	deflate      int
	forceCompact bool
	variant      TypeVariant
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithChunks sets an explicit chunk shape, forcing the chunked layout.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithExtendable marks every axis unlimited, forcing the chunked layout.
func WithExtendable() DatasetOption {
	return func(o *datasetOptions) {
		o.extendable = true
	}
}

// WithDeflate enables gzip compression (level 1-9), forcing the chunked
// layout. Level 0 disables it again.
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.deflate = level
		}
	}
}

// WithCompact forces the compact layout regardless of size.
func WithCompact() DatasetOption {
	return func(o *datasetOptions) {
		o.forceCompact = true
	}
}

// WithTypeVariant tags the dataset with a semantic type variant.
func WithTypeVariant(v TypeVariant) DatasetOption {
	return func(o *datasetOptions) {
		o.variant = v
	}
}
