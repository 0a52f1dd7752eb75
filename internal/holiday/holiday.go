// Package holiday answers whether a date is a national holiday.
package holiday

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/yukikurage/lunch-order-api/internal/errors"
	"gopkg.in/yaml.v3"
)

// QueryLayout is the date format accepted from clients, e.g. 2024/5/3.
const QueryLayout = "2006/1/2"

const keyLayout = "2006-01-02"

var ErrInvalidDate = apierrors.New(apierrors.KindInvalidInput, "date must be in YYYY/M/D format")

//go:embed holidays.yaml
var builtin []byte

// Calendar is a static date to holiday name map.
type Calendar struct {
	names map[string]string
}

type calendarFile struct {
	Holidays map[string]string `yaml:"holidays"`
}

// Default returns the embedded calendar.
func Default() (*Calendar, error) {
	return Parse(builtin)
}

// Parse reads a calendar from YAML.
func Parse(data []byte) (*Calendar, error) {
	var f calendarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse holiday calendar: %w", err)
	}

	names := make(map[string]string, len(f.Holidays))
	for key, name := range f.Holidays {
		d, err := time.Parse(keyLayout, key)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", key, err)
		}
		names[d.Format(keyLayout)] = name
	}
	return &Calendar{names: names}, nil
}

// Lookup returns the holiday name for a YYYY/M/D date, or "" on a regular day.
func (c *Calendar) Lookup(date string) (string, error) {
	d, err := time.Parse(QueryLayout, strings.TrimSpace(date))
	if err != nil {
		return "", ErrInvalidDate
	}
	return c.names[d.Format(keyLayout)], nil
}
