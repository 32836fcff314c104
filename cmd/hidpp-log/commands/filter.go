package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lus/hidpp-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output      string `yaml:"output"`
	ChannelID   string `yaml:"channelId"`
	DeviceIndex *int   `yaml:"deviceIndex"`
	TimeStart   string `yaml:"timeStart"`
	TimeEnd     string `yaml:"timeEnd"`
	Layer       string `yaml:"layer"`
	Direction   string `yaml:"direction"`
	Category    string `yaml:"category"`
}

// LoadFilterOptions reads filter options from a YAML file.
func LoadFilterOptions(path string) (FilterOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("failed to read filter config: %w", err)
	}

	var opts FilterOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return FilterOptions{}, fmt.Errorf("failed to parse filter config: %w", err)
	}
	return opts, nil
}

// RunFilter filters the log file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions) error {
	filter := log.Filter{
		ChannelID: opts.ChannelID,
	}

	if opts.DeviceIndex != nil {
		if *opts.DeviceIndex < 0 || *opts.DeviceIndex > 0xff {
			return fmt.Errorf("device index %d out of range", *opts.DeviceIndex)
		}
		index := uint8(*opts.DeviceIndex)
		filter.DeviceIndex = &index
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return err
		}
		filter.Layer = &l
	}

	if opts.Direction != "" {
		d, err := parseDirection(opts.Direction)
		if err != nil {
			return err
		}
		filter.Direction = &d
	}

	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
