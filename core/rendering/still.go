package rendering

import (
	"time"
)

// Still is the metadata record of one rendered output file. The image bytes
// live on disk at Path; the repository only tracks them.
type Still struct {
	ID         string
	BatchID    string
	CameraName string
	Frame      int
	Path       string
	SizeBytes  int64
	RenderedAt time.Time
}

// StillQuery represents query parameters for searching stills
type StillQuery struct {
	BatchID    string // empty string means no filter
	CameraName string // empty string means no filter
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      *int // maximum number of records to return (nil means no limit)
	Offset     *int // number of records to skip (nil means no offset)
}
