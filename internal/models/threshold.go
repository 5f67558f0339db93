package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Threshold is the minimum similarity a candidate must exceed to count as a match
type Threshold float32

const (
	ThresholdAll    Threshold = 0
	ThresholdLow    Threshold = 0.6
	ThresholdMedium Threshold = 0.7
	ThresholdHigh   Threshold = 0.8
)

// Thresholds lists the selectable values in menu order
var Thresholds = []Threshold{ThresholdAll, ThresholdLow, ThresholdMedium, ThresholdHigh}

var thresholdLabels = map[Threshold]string{
	ThresholdAll:    "All",
	ThresholdLow:    "Low",
	ThresholdMedium: "Medium",
	ThresholdHigh:   "High",
}

func (t Threshold) String() string {
	if label, ok := thresholdLabels[t]; ok {
		return label
	}
	return strconv.FormatFloat(float64(t), 'f', -1, 32)
}

// Valid reports whether t is one of the enumerated values
func (t Threshold) Valid() bool {
	_, ok := thresholdLabels[t]
	return ok
}

// ParseThreshold accepts a label ("Medium") or a value ("0.7")
func ParseThreshold(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	for t, label := range thresholdLabels {
		if strings.EqualFold(label, s) {
			return t, nil
		}
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q", s)
	}
	t := Threshold(v)
	if !t.Valid() {
		return 0, fmt.Errorf("threshold %q is not one of %v", s, Thresholds)
	}
	return t, nil
}

// UnmarshalYAML lets config files use either form
func (t *Threshold) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseThreshold(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
