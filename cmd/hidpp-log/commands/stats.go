package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lus/hidpp-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Channels          map[string]*ChannelStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ChannelStats holds statistics for a single channel.
type ChannelStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Matched   int
	Devices   map[uint8]int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Channels:          make(map[string]*ChannelStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		ch, ok := stats.Channels[event.ChannelID]
		if !ok {
			ch = &ChannelStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Devices:   make(map[uint8]int),
			}
			stats.Channels[event.ChannelID] = ch
		}
		ch.Events++
		if event.Timestamp.After(ch.LastSeen) {
			ch.LastSeen = event.Timestamp
		}
		if event.Message != nil {
			ch.Devices[event.Message.DeviceIndex]++
			if event.Message.Matched {
				ch.Matched++
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== HID++ Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerProtocol} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Channels: %d\n", len(stats.Channels))
	if len(stats.Channels) > 0 {
		type chanInfo struct {
			id    string
			stats *ChannelStats
		}
		channels := make([]chanInfo, 0, len(stats.Channels))
		for id, cs := range stats.Channels {
			channels = append(channels, chanInfo{id, cs})
		}
		sort.Slice(channels, func(i, j int) bool {
			return channels[i].stats.FirstSeen.Before(channels[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range channels {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			shortID := c.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, c.stats.Events, duration)
			if c.stats.Matched > 0 {
				fmt.Fprintf(w, "           Matched responses: %d\n", c.stats.Matched)
			}
			if len(c.stats.Devices) > 0 {
				indices := make([]uint8, 0, len(c.stats.Devices))
				for index := range c.stats.Devices {
					indices = append(indices, index)
				}
				sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
				fmt.Fprintf(w, "           Devices:")
				for _, index := range indices {
					fmt.Fprintf(w, " %#02x(%d)", index, c.stats.Devices[index])
				}
				fmt.Fprintln(w)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
