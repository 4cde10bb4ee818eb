package notify

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Alerter watches the ingestion stream and raises a log alert whenever
// a freshly ingested image carries the watched tag.
type Alerter struct {
	watchTag string
	log      zerolog.Logger
}

func NewAlerter(watchTag string, log zerolog.Logger) *Alerter {
	return &Alerter{
		watchTag: strings.ToLower(watchTag),
		log:      log,
	}
}

func (a *Alerter) Handle(ctx context.Context, msg redis.XMessage) error {
	filename, _ := msg.Values["filename"].(string)
	rawTags, _ := msg.Values["tags"].(string)

	matched := false
	for _, tag := range strings.Split(rawTags, ",") {
		if strings.ToLower(strings.TrimSpace(tag)) == a.watchTag {
			matched = true
			break
		}
	}

	if matched {
		a.log.Warn().
			Str("filename", filename).
			Str("tag", a.watchTag).
			Msg("watched tag detected in new image")
	} else {
		a.log.Debug().Str("filename", filename).Msg("image ingested")
	}
	return nil
}
