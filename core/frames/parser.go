package frames

import (
	"strconv"
	"strings"

	"stillbatch/core/ccc/logging"
)

// Parser turns a frame-range string like "11,25,250-260" into an ordered
// list of frame numbers. Each comma-separated token is either a single
// integer or a start-end pair; a pair expands to the inclusive sequence
// between its endpoints, stepping down when the pair is descending. Tokens
// that fit neither form are skipped and reported, never fatal. Frame order
// follows token order, then expansion order; duplicates are preserved.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a new frame-range parser
func NewParser(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &Parser{logger: logger}
}

// Parse expands the frame-range string. It returns the ordered frame list
// and the tokens that could not be parsed. Empty tokens (stray or trailing
// commas) are dropped silently.
func (p *Parser) Parse(ranges string) ([]int, []string) {
	frames := make([]int, 0)
	var invalid []string

	for _, token := range strings.Split(ranges, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if strings.Contains(token, "-") {
			expanded, ok := expandRange(token)
			if !ok {
				p.logger.Warn("Skipping invalid frame range token", "token", token)
				invalid = append(invalid, token)
				continue
			}
			frames = append(frames, expanded...)
			continue
		}

		frame, err := strconv.Atoi(token)
		if err != nil {
			p.logger.Warn("Skipping invalid frame number token", "token", token)
			invalid = append(invalid, token)
			continue
		}
		frames = append(frames, frame)
	}

	return frames, invalid
}

// expandRange expands a start-end token into the inclusive integer sequence
// between its endpoints. A descending pair counts down.
func expandRange(token string) ([]int, bool) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return nil, false
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, false
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}

	if start <= end {
		frames := make([]int, 0, end-start+1)
		for f := start; f <= end; f++ {
			frames = append(frames, f)
		}
		return frames, true
	}

	frames := make([]int, 0, start-end+1)
	for f := start; f >= end; f-- {
		frames = append(frames, f)
	}
	return frames, true
}
