// Package export renders solved timelines to CSV and optionally
// parks the file in the blob store for download.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/store"
)

// TimelineCSV renders the land spans and event firings as two CSV
// sections separated by a blank line.
func TimelineCSV(tl *plan.Timeline) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"land_id", "crop_id", "start_day", "end_day", "area_a"}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	for _, sp := range tl.LandSpans {
		rec := []string{
			sp.LandID,
			sp.CropID,
			strconv.Itoa(sp.StartDay),
			strconv.Itoa(sp.EndDay),
			strconv.FormatFloat(sp.Area, 'f', 1, 64),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	buf.WriteByte('\n')

	w = csv.NewWriter(&buf)
	if err := w.Write([]string{"day", "event_id", "crop_id", "land_ids", "workers", "hours"}); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	for _, ev := range tl.Events {
		var workers []string
		var hours float64
		for _, wu := range ev.WorkerUsages {
			workers = append(workers, wu.WorkerID)
			hours += wu.Hours
		}
		rec := []string{
			strconv.Itoa(ev.Day),
			ev.EventID,
			ev.CropID,
			strings.Join(ev.LandIDs, ";"),
			strings.Join(workers, ";"),
			strconv.FormatFloat(hours, 'f', 1, 64),
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Upload stores a rendered export and returns its blob key.
func Upload(ctx context.Context, blobs store.BlobStore, data []byte) (string, error) {
	key := fmt.Sprintf("exports/%s-%s.csv", time.Now().UTC().Format("20060102"), uuid.NewString())
	if err := blobs.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}
