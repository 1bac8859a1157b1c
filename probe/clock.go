package probe

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"buildstamp/descriptor"
)

// now is swapped out in tests.
var now = time.Now

// BuildTime captures the build instant once. Callers hold the returned
// Timestamp for the rest of the run, so every emission shows the identical
// instant. When SOURCE_DATE_EPOCH is set (reproducible builds), the instant
// is taken from it instead of the wall clock; a malformed value is a
// ConfigError since a present input must be trustworthy.
func BuildTime(format descriptor.TimeFormat) (descriptor.Timestamp, error) {
	if epoch, ok := os.LookupEnv("SOURCE_DATE_EPOCH"); ok && epoch != "" {
		secs, err := strconv.ParseInt(epoch, 10, 64)
		if err != nil {
			return descriptor.Timestamp{}, &descriptor.ConfigError{
				Key: "SOURCE_DATE_EPOCH",
				Err: fmt.Errorf("not a unix timestamp: %q", epoch),
			}
		}
		return descriptor.NewTimestamp(time.Unix(secs, 0), format), nil
	}
	return descriptor.NewTimestamp(now(), format), nil
}
