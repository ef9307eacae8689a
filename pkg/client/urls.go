package client

import (
	"fmt"
	"net/url"
)

func (c *Client) profileURL(profileID string) string {
	return fmt.Sprintf("%s/v1/companies/%s/buckets/%s/profiles/%s?app_key=%s",
		c.cfg.APIURL,
		url.PathEscape(c.cfg.GroupID),
		url.PathEscape(c.cfg.BucketName),
		url.PathEscape(profileID),
		url.QueryEscape(c.cfg.AppKey),
	)
}

func (c *Client) appSettingsURL() string {
	return fmt.Sprintf("%s/v1/companies/%s/buckets/%s/apps/%s/custom?app_key=%s",
		c.cfg.APIURL,
		url.PathEscape(c.cfg.GroupID),
		url.PathEscape(c.cfg.BucketName),
		url.PathEscape(c.cfg.AppName),
		url.QueryEscape(c.cfg.AppKey),
	)
}

func (c *Client) segmentsURL() string {
	return fmt.Sprintf("%s/v1/companies/%s/buckets/%s/segments?app_key=%s",
		c.cfg.APIURL,
		url.PathEscape(c.cfg.GroupID),
		url.PathEscape(c.cfg.BucketName),
		url.QueryEscape(c.cfg.AppKey),
	)
}

// segmentEvaluationURL appends params after app_key in encoded order.
func (c *Client) segmentEvaluationURL(params url.Values) string {
	return fmt.Sprintf("%s/v1/companies/%s/buckets/%s/segment-evaluation?app_key=%s&%s",
		c.cfg.EvaluationURL(),
		url.PathEscape(c.cfg.GroupID),
		url.PathEscape(c.cfg.BucketName),
		url.QueryEscape(c.cfg.AppKey),
		params.Encode(),
	)
}

func (c *Client) schedulerURL(taskID string) string {
	base := fmt.Sprintf("%s/scheduler/%s-%s-%s",
		c.cfg.SchedulerAPIHost,
		url.PathEscape(c.cfg.GroupID),
		url.PathEscape(c.cfg.BucketName),
		url.PathEscape(c.cfg.AppName),
	)
	if taskID != "" {
		base += "/" + url.PathEscape(taskID)
	}
	return base + "?token=" + url.QueryEscape(c.cfg.AppKey)
}

// redact hides credentials carried in the query string.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := u.Query()
	for _, key := range []string{"app_key", "token"} {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}
