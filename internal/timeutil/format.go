package timeutil

import "time"

// ISOLayout is the record line timestamp: UTC with millisecond precision.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FileStampLayout is the local date and time embedded in recording file names.
const FileStampLayout = "20060102_150405"

// ISO formats t in UTC as used at the start of every record line.
func ISO(t time.Time) string { return t.UTC().Format(ISOLayout) }

// FileStamp formats t in local time as YYYYMMDD_HHMMSS.
func FileStamp(t time.Time) string { return t.Local().Format(FileStampLayout) }

// UnixMillis returns t as milliseconds since the epoch, the unit used for
// chart sample and trajectory timestamps.
func UnixMillis(t time.Time) int64 { return t.UnixMilli() }

// WholeSeconds truncates d to whole seconds.
func WholeSeconds(d time.Duration) int64 { return int64(d / time.Second) }
