package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EngagementMetric maps one boost type to a panel service and order size.
// A quantity of zero or less disables the metric without removing it.
type EngagementMetric struct {
	Name      string `yaml:"name"`
	ServiceID int    `yaml:"service"`
	Quantity  int    `yaml:"quantity"`
}

// FollowerBoost is the one-time order placed the first time an account is seen.
type FollowerBoost struct {
	ServiceID int `yaml:"service"`
	Quantity  int `yaml:"quantity"`
}

// EngagementCatalog is the full order table for one processed post. Metric
// order is preserved: orders are dispatched in the order listed here.
type EngagementCatalog struct {
	Metrics   []EngagementMetric `yaml:"metrics"`
	Followers FollowerBoost      `yaml:"followers"`
}

// DefaultCatalog returns the stock service table.
func DefaultCatalog() *EngagementCatalog {
	return &EngagementCatalog{
		Metrics: []EngagementMetric{
			{Name: "likes", ServiceID: 9326, Quantity: 50},
			{Name: "retweets", ServiceID: 5062, Quantity: 10},
			{Name: "comments", ServiceID: 98, Quantity: 5},
			{Name: "bookmarks", ServiceID: 1017, Quantity: 20},
			{Name: "impressions", ServiceID: 1375, Quantity: 2000},
		},
		Followers: FollowerBoost{ServiceID: 9011, Quantity: 300},
	}
}

// LoadCatalog reads a catalog override from a YAML file. The file replaces
// the default table wholesale rather than merging into it.
func LoadCatalog(path string) (*EngagementCatalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog EngagementCatalog
	if err := yaml.Unmarshal(buf, &catalog); err != nil {
		return nil, err
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

// Validate rejects catalogs that would produce orders the panel cannot accept.
func (c *EngagementCatalog) Validate() error {
	names := make(map[string]bool, len(c.Metrics))
	for _, metric := range c.Metrics {
		if metric.Name == "" {
			return errors.New("catalog metric with empty name")
		}
		if names[metric.Name] {
			return errors.Errorf("catalog metric %q listed twice", metric.Name)
		}
		names[metric.Name] = true
		if metric.Quantity > 0 && metric.ServiceID <= 0 {
			return errors.Errorf("catalog metric %q has no service id", metric.Name)
		}
	}
	if c.Followers.Quantity > 0 && c.Followers.ServiceID <= 0 {
		return errors.New("follower boost has no service id")
	}
	return nil
}

// Enabled returns the metrics that actually produce orders, in catalog order.
func (c *EngagementCatalog) Enabled() []EngagementMetric {
	enabled := make([]EngagementMetric, 0, len(c.Metrics))
	for _, metric := range c.Metrics {
		if metric.Quantity > 0 {
			enabled = append(enabled, metric)
		}
	}
	return enabled
}

// FollowersEnabled reports whether first-seen accounts get a follower order.
func (c *EngagementCatalog) FollowersEnabled() bool {
	return c.Followers.Quantity > 0 && c.Followers.ServiceID > 0
}
