package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ListAlertRules drains all alert rules for the model, optionally
// filtered by metric name.
func (c *Client) ListAlertRules(ctx context.Context, modelID, metricName string) ([]AlertRule, error) {
	extra := url.Values{}
	if metricName != "" {
		extra.Set("metric_name", metricName)
	}

	var rules []AlertRule
	for page := 1; ; page++ {
		var resp listResponse[AlertRule]
		if err := c.get(ctx, "/models/"+modelID+"/alert_rules", pageQuery(page, extra), &resp); err != nil {
			return nil, fmt.Errorf("failed to list alert rules: %w", err)
		}
		rules = append(rules, resp.Records...)
		if len(resp.Records) < pageSize {
			break
		}
	}
	return rules, nil
}

// ListAlerts drains all alerts fired for the model within [from, to),
// optionally restricted to the given rules.
func (c *Client) ListAlerts(ctx context.Context, modelID string, ruleIDs []string, from, to time.Time) ([]Alert, error) {
	extra := url.Values{}
	if len(ruleIDs) > 0 {
		extra.Set("alert_rule_ids", strings.Join(ruleIDs, ","))
	}
	extra.Set("time_from", from.UTC().Format(time.RFC3339))
	extra.Set("time_to", to.UTC().Format(time.RFC3339))

	var alerts []Alert
	for page := 1; ; page++ {
		var resp listResponse[Alert]
		if err := c.get(ctx, "/models/"+modelID+"/alerts", pageQuery(page, extra), &resp); err != nil {
			return nil, fmt.Errorf("failed to list alerts: %w", err)
		}
		alerts = append(alerts, resp.Records...)
		if len(resp.Records) < pageSize {
			break
		}
	}
	return alerts, nil
}
