// Command scheduleworker-replay runs the observation-to-notification
// pipeline against a local JSON fixture, without touching a database or a
// real OCR engine. It exists for support debugging: given a captured
// session's screenshots (or their already-transcribed fixture text) and an
// optional prior day snapshot, it prints the canonical payload, the
// detected events, and the notifications that would have been produced
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"swearjar/internal/adapters/vision"
	"swearjar/internal/core/aggregate"
	"swearjar/internal/core/canon"
	"swearjar/internal/core/diff"
	"swearjar/internal/core/notify"
	perr "swearjar/internal/platform/errors"
)

// fixture is the offline replay input: one session's worth of already
// OCR-friendly "image" text (fixture text consumed by vision.StandInOCR,
// see its doc comment) plus the prior day's canonical shifts, if any
type fixture struct {
	UserID          string       `json:"user_id"`
	SourceSessionID string       `json:"source_session_id"`
	Images          []string     `json:"images"`
	PriorShifts     []canon.Shift `json:"prior_shifts"`
	SummaryThreshold int         `json:"summary_threshold"`
}

type result struct {
	ScheduleDate  string               `json:"schedule_date"`
	PayloadHash   string               `json:"payload_hash"`
	Shifts        []canon.Shift        `json:"shifts"`
	Events        []diff.Event         `json:"events"`
	Notifications []notify.Notification `json:"notifications"`
}

func main() {
	var fixturePath string

	root := &cobra.Command{
		Use:   "scheduleworker-replay",
		Short: "Replay a fixture session through the ingest pipeline offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(fixturePath)
		},
	}
	root.Flags().StringVar(&fixturePath, "fixture", "", "path to a fixture JSON file (see fixture struct)")
	_ = root.MarkFlagRequired("fixture")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fixturePath string) error {
	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	res, err := replay(fx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func replay(fx fixture) (result, error) {
	ocr := vision.StandInOCR{}
	layout := vision.StandInLayoutParser{}
	norm := vision.StandInNormalizer{}

	var observations []aggregate.Observation
	dates := make(map[string]struct{})

	for screenshotIdx, image := range fx.Images {
		boxes, err := ocr.Scan(context.Background(), []byte(image))
		if err != nil {
			return result{}, err
		}
		if date, ok := vision.ExtractScheduleDate(boxes); ok {
			dates[date] = struct{}{}
		}
		entries := layout.Parse(boxes)
		shifts, err := norm.Normalize(entries)
		if err != nil {
			return result{}, err
		}
		for position, shift := range shifts {
			observations = append(observations, aggregate.Observation{
				Shift:         shift,
				ScreenshotIdx: screenshotIdx,
				Position:      position,
			})
		}
	}

	scheduleDate, err := resolveScheduleDate(dates)
	if err != nil {
		return result{}, err
	}

	merged := aggregate.Aggregate(observations, aggregate.DefaultTimeToleranceMinutes)
	shifts := make([]canon.Shift, len(merged))
	for i, m := range merged {
		shifts[i] = m.Shift
	}

	payload, hash, err := canon.Canonicalize(scheduleDate, shifts)
	if err != nil {
		return result{}, err
	}

	events := diff.Diff(fx.PriorShifts, payload.Shifts)

	records := make([]notify.EventRecord, len(events))
	for i, e := range events {
		records[i] = notify.EventRecord{EventID: fmt.Sprintf("replay-%d", i), Event: e}
	}
	notifications := notify.Map(fx.UserID, scheduleDate, fx.SourceSessionID, records, nil, fx.SummaryThreshold)

	return result{
		ScheduleDate:  scheduleDate,
		PayloadHash:   hash,
		Shifts:        payload.Shifts,
		Events:        events,
		Notifications: notifications,
	}, nil
}

func resolveScheduleDate(dates map[string]struct{}) (string, error) {
	if len(dates) == 0 {
		return "", perr.New(perr.ErrorCodeSchemaContract, "unknown state: missing schedule_date, no image yielded a recognizable date")
	}
	if len(dates) == 1 {
		for d := range dates {
			return d, nil
		}
	}
	distinct := make([]string, 0, len(dates))
	for d := range dates {
		distinct = append(distinct, d)
	}
	sort.Strings(distinct)
	return "", perr.Newf(perr.ErrorCodeSchemaContract, "inconsistent schedule_date across session images: %v", distinct)
}
