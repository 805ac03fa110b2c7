package migrate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartingFEN is the default position assigned to canonical records whose
// position key is missing from the source.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ecoEntry is the normalized shape of one canonical opening definition.
// Source records are loosely structured; they are forced into this shape
// immediately on ingestion so downstream code never touches raw JSON.
type ecoEntry struct {
	Name    string    `json:"name"`
	ECO     string    `json:"eco"`
	Moves   string    `json:"moves"`
	Aliases aliasList `json:"aliases"`
}

// aliasList accepts the alternate-names field as either a single string or
// a list of strings — both shapes occur in the canonical files.
type aliasList []string

func (a *aliasList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*a = []string{single}
		}
		return nil
	}
	return fmt.Errorf("aliases: neither string nor list")
}

// videoRecord is the normalized shape of one source video descriptor.
type videoRecord struct {
	ID          string
	Title       string
	Channel     string
	Duration    int
	ViewCount   int64
	PublishedAt int64
	Thumbnail   string
	Score       float64
}

// rawVideoRecord tolerates the numeric sloppiness of the source files:
// durations and view counts appear both as numbers and as digit strings,
// publication timestamps as RFC 3339 strings or unix milliseconds.
type rawVideoRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Channel     string   `json:"channel"`
	Duration    flexInt  `json:"duration"`
	ViewCount   flexInt  `json:"view_count"`
	PublishedAt flexTime `json:"published_at"`
	Thumbnail   string   `json:"thumbnail"`
	Score       float64  `json:"match_score"`
}

// normalize validates the required fields and returns the fixed-shape
// record. A validation failure is a source defect: the record is counted
// as errored and never inserted.
func (r *rawVideoRecord) normalize() (*videoRecord, error) {
	if strings.TrimSpace(r.ID) == "" {
		return nil, fmt.Errorf("video record: empty id")
	}
	if r.Duration.invalid {
		return nil, fmt.Errorf("video %s: non-numeric duration", r.ID)
	}
	if r.Duration.value < 0 {
		return nil, fmt.Errorf("video %s: negative duration %d", r.ID, r.Duration.value)
	}
	if r.ViewCount.invalid {
		return nil, fmt.Errorf("video %s: non-numeric view count", r.ID)
	}
	return &videoRecord{
		ID:          r.ID,
		Title:       r.Title,
		Channel:     r.Channel,
		Duration:    int(r.Duration.value),
		ViewCount:   r.ViewCount.value,
		PublishedAt: r.PublishedAt.millis,
		Thumbnail:   r.Thumbnail,
		Score:       r.Score,
	}, nil
}

// flexInt parses an integer given as a JSON number or a digit string.
// An absent field is zero; garbage marks the field invalid instead of
// failing the whole document decode, so one bad record cannot take the
// rest of the file down with it.
type flexInt struct {
	value   int64
	invalid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Tolerate float-formatted counts ("1.2e4" style exports).
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			f.invalid = true
			return nil
		}
		n = int64(fl)
	}
	f.value = n
	return nil
}

// flexTime parses a timestamp given as RFC 3339 or unix milliseconds.
// Unparseable timestamps degrade to zero rather than invalidating the
// record — publication time is not a required field.
type flexTime struct {
	millis int64
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		f.millis = ts.UnixMilli()
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.millis = n
	}
	return nil
}
