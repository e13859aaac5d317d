package h5typed

import (
	"time"

	"github.com/ansel1/merry"
)

// TimeRW is the timestamp surface. Timestamps are stored as i64
// milliseconds since the Unix epoch, tagged with the
// TIMESTAMP_MILLISECONDS_SINCE_EPOCH type variant so readers can tell
// them apart from plain integers. Obtain it from File.Times.
type TimeRW struct {
	f *File
}

// Write writes a scalar timestamp.
func (rw *TimeRW) Write(path string, t time.Time, opts ...DatasetOption) error {
	if err := rw.f.Int64s().Write(path, t.UnixMilli(), opts...); err != nil {
		return err
	}
	return rw.f.SetTypeVariant(path, VariantTimestampMillis)
}

// WriteArray writes a rank-1 timestamp dataset.
func (rw *TimeRW) WriteArray(path string, ts []time.Time, opts ...DatasetOption) error {
	millis := make([]int64, len(ts))
	for i, t := range ts {
		millis[i] = t.UnixMilli()
	}
	if err := rw.f.Int64s().WriteArray(path, millis, opts...); err != nil {
		return err
	}
	return rw.f.SetTypeVariant(path, VariantTimestampMillis)
}

// requireTimestamp verifies the dataset carries the timestamp variant.
func (rw *TimeRW) requireTimestamp(path string) error {
	v, err := rw.f.TypeVariantOf(path)
	if err != nil {
		return err
	}
	if v != VariantTimestampMillis {
		return merry.Appendf(ErrTypeMismatch, "%q is tagged %s, want %s",
			path, v, VariantTimestampMillis)
	}
	return nil
}

// Read reads a scalar timestamp. The dataset must carry the timestamp
// variant tag.
func (rw *TimeRW) Read(path string) (time.Time, error) {
	if err := rw.requireTimestamp(path); err != nil {
		return time.Time{}, err
	}
	millis, err := rw.f.Int64s().Read(path)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis).UTC(), nil
}

// ReadArray reads a rank-1 timestamp dataset.
func (rw *TimeRW) ReadArray(path string) ([]time.Time, error) {
	if err := rw.requireTimestamp(path); err != nil {
		return nil, err
	}
	millis, err := rw.f.Int64s().ReadArray(path)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(millis))
	for i, ms := range millis {
		out[i] = time.UnixMilli(ms).UTC()
	}
	return out, nil
}
