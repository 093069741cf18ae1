package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TimeToString converts a time.Time to RFC3339Nano string for database storage
func TimeToString(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// StringToTime converts an RFC3339Nano string from database to time.Time
func StringToTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// BoolToInt converts a boolean to integer for database storage (1 for true, 0 for false)
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IntToBool converts an integer from database to boolean (1 = true, 0 = false)
func IntToBool(i int) bool {
	return i == 1
}

// TimePtrToString converts a *time.Time to string for database storage
// Returns nil if the pointer is nil, otherwise converts the time value
func TimePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	result := TimeToString(*t)
	return &result
}

// FramesToString encodes an ordered frame list as a comma-separated string
// for database storage. Order is preserved.
func FramesToString(frames []int) string {
	if len(frames) == 0 {
		return ""
	}
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, ",")
}

// StringToFrames decodes a comma-separated frame list from database storage.
func StringToFrames(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	frames := make([]int, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid frame value %q: %w", p, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// NewInMemoryDB creates a new in-memory SQLite database for testing
func NewInMemoryDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
