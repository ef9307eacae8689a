package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/internal/hydrate"
	"github.com/goliatone/go-profiles/pkg/segment"
)

type evaluationEnvelope struct {
	SegmentEvaluation *struct {
		Result *bool `json:"result"`
	} `json:"segmentEvaluation"`
}

var evaluationDecoder = hydrate.NewDecoder[evaluationEnvelope]()

// Segments lists the segments of the bucket. Entries without a segment
// object are skipped; malformed segments are an error.
func (c *Client) Segments(ctx context.Context) ([]segment.Segment, error) {
	key := c.cacheKey("segments")
	if cached, ok := c.cached(key); ok {
		if entries, ok := cached.([]any); ok {
			return segmentsFromEntries(entries)
		}
	}

	body, err := c.call(ctx, http.MethodGet, c.segmentsURL(), nil)
	if err != nil {
		return nil, err
	}
	var entries []any
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Wrap(err, "client: decode segments")
	}
	segments, err := segmentsFromEntries(entries)
	if err != nil {
		return nil, err
	}
	c.store(key, entries)
	return segments, nil
}

func segmentsFromEntries(entries []any) ([]segment.Segment, error) {
	out := make([]segment.Segment, 0, len(entries))
	for _, entry := range entries {
		wrapper, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		record, ok := wrapper["segment"].(map[string]any)
		if !ok {
			continue
		}
		seg, err := segment.FromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

// EvaluateProfileBySegment evaluates profile against seg remotely.
func (c *Client) EvaluateProfileBySegment(ctx context.Context, profile *profiles.Profile, seg segment.Segment) (bool, error) {
	if strings.TrimSpace(seg.ID) == "" {
		return false, fmt.Errorf("%w: argument \"segment\" should have an id", ErrInvalidArgument)
	}
	return c.EvaluateProfileBySegmentID(ctx, profile, seg.ID)
}

// EvaluateProfileBySegmentID evaluates profile against a stored segment.
func (c *Client) EvaluateProfileBySegmentID(ctx context.Context, profile *profiles.Profile, segmentID string) (bool, error) {
	return c.evaluate(ctx, profile, url.Values{"segment_id": {segmentID}})
}

// EvaluateProfileByIQL evaluates profile against an ad hoc IQL expression.
func (c *Client) EvaluateProfileByIQL(ctx context.Context, profile *profiles.Profile, iql string) (bool, error) {
	return c.evaluate(ctx, profile, url.Values{"iql": {iql}})
}

func (c *Client) evaluate(ctx context.Context, profile *profiles.Profile, params url.Values) (bool, error) {
	if profile == nil {
		return false, fmt.Errorf("%w: argument \"profile\" should be a profile", ErrInvalidArgument)
	}
	params.Set("profile_id", profile.ID())

	body, err := c.call(ctx, http.MethodGet, c.segmentEvaluationURL(params), nil)
	if err != nil {
		return false, err
	}
	envelope, err := evaluationDecoder.DecodeBytes(hydrate.Context{Source: "segment evaluation", ProfileID: profile.ID()}, body)
	if err != nil {
		return false, err
	}
	if envelope.SegmentEvaluation == nil || envelope.SegmentEvaluation.Result == nil {
		return false, fmt.Errorf("%w: %s", ErrNoEvaluationResult, body)
	}
	return *envelope.SegmentEvaluation.Result, nil
}
