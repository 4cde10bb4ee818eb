package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aremuc/home-monitor-iot/internal/store"
)

// ErrInvalidRange rejects window bounds that do not parse as a
// recognized point-in-time format.
var ErrInvalidRange = errors.New("invalid time range")

// timeFormat is the second-precision form bounds are echoed back in.
const timeFormat = "2006-01-02T15:04:05"

// personTag is the label the presence endpoint watches for.
const personTag = "person"

// popularLimit caps the popularity ranking.
const popularLimit = 5

var acceptedLayouts = []string{
	time.RFC3339,
	timeFormat,
	"2006-01-02",
}

// TagsResult answers a tag listing over a window.
type TagsResult struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Tags []string `json:"tags"`
}

// PresenceResult answers whether the person tag appeared in a window.
type PresenceResult struct {
	From           string `json:"from"`
	To             string `json:"to"`
	PersonDetected bool   `json:"personDetected"`
}

// Service is the read side: window queries and the popularity ranking,
// each one a fresh trip to the record store.
type Service struct {
	records store.RecordStore
}

func NewService(records store.RecordStore) *Service {
	return &Service{records: records}
}

func (s *Service) TagsInWindow(ctx context.Context, from, to string) (TagsResult, error) {
	start, end, err := parseWindow(from, to)
	if err != nil {
		return TagsResult{}, err
	}

	tags, err := s.records.TagsInRange(ctx, start, end)
	if err != nil {
		return TagsResult{}, err
	}
	if tags == nil {
		tags = []string{}
	}

	return TagsResult{
		From: start.Format(timeFormat),
		To:   end.Format(timeFormat),
		Tags: tags,
	}, nil
}

func (s *Service) PersonDetected(ctx context.Context, from, to string) (PresenceResult, error) {
	start, end, err := parseWindow(from, to)
	if err != nil {
		return PresenceResult{}, err
	}

	detected, err := s.records.HasTagInRange(ctx, personTag, start, end)
	if err != nil {
		return PresenceResult{}, err
	}

	return PresenceResult{
		From:           start.Format(timeFormat),
		To:             end.Format(timeFormat),
		PersonDetected: detected,
	}, nil
}

func (s *Service) PopularTags(ctx context.Context) ([]store.TagCount, error) {
	ranking, err := s.records.PopularTags(ctx, popularLimit)
	if err != nil {
		return nil, err
	}
	if ranking == nil {
		ranking = []store.TagCount{}
	}
	return ranking, nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	start, err := parseBound(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseBound(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseBound(value string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q, use ISO format (e.g. 2025-01-01T10:00:00)", ErrInvalidRange, value)
}
