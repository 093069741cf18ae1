package frames

import (
	"reflect"
	"testing"

	"stillbatch/core/ccc/logging"
)

func assertFrames(t *testing.T, got, expected []int) {
	t.Helper()
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected frames %v, got %v", expected, got)
	}
}

func TestParser_Parse_SingleFrames(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("11,25,250")

	assertFrames(t, frames, []int{11, 25, 250})
	if len(invalid) != 0 {
		t.Errorf("Expected no invalid tokens, got %v", invalid)
	}
}

func TestParser_Parse_Range(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("25-30")

	assertFrames(t, frames, []int{25, 26, 27, 28, 29, 30})
	if len(invalid) != 0 {
		t.Errorf("Expected no invalid tokens, got %v", invalid)
	}
}

func TestParser_Parse_MixedTokensKeepOrder(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, _ := parser.Parse("11,25,250-253,7")

	assertFrames(t, frames, []int{11, 25, 250, 251, 252, 253, 7})
}

func TestParser_Parse_SingleElementRange(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, _ := parser.Parse("5-5")

	assertFrames(t, frames, []int{5})
}

func TestParser_Parse_DescendingRange(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("260-256")

	assertFrames(t, frames, []int{260, 259, 258, 257, 256})
	if len(invalid) != 0 {
		t.Errorf("Expected descending range to be valid, got invalid tokens %v", invalid)
	}
}

func TestParser_Parse_DuplicatesPreserved(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, _ := parser.Parse("10-12,3,10-12")

	assertFrames(t, frames, []int{10, 11, 12, 3, 10, 11, 12})
}

func TestParser_Parse_WhitespaceTolerated(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse(" 11 , 25 , 250 - 252 ")

	assertFrames(t, frames, []int{11, 25, 250, 251, 252})
	if len(invalid) != 0 {
		t.Errorf("Expected no invalid tokens, got %v", invalid)
	}
}

func TestParser_Parse_InvalidTokensSkipped(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("11,abc,25,1-2-3,30")

	assertFrames(t, frames, []int{11, 25, 30})

	expectedInvalid := []string{"abc", "1-2-3"}
	if !reflect.DeepEqual(invalid, expectedInvalid) {
		t.Errorf("Expected invalid tokens %v, got %v", expectedInvalid, invalid)
	}
}

func TestParser_Parse_MalformedRanges(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	tests := []string{"-5", "5-", "-", "a-b", "1-b", "a-1"}

	for _, token := range tests {
		frames, invalid := parser.Parse(token)
		if len(frames) != 0 {
			t.Errorf("Expected no frames for token %q, got %v", token, frames)
		}
		if len(invalid) != 1 || invalid[0] != token {
			t.Errorf("Expected token %q to be reported invalid, got %v", token, invalid)
		}
	}
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("")

	if len(frames) != 0 {
		t.Errorf("Expected no frames for empty input, got %v", frames)
	}
	if len(invalid) != 0 {
		t.Errorf("Expected no invalid tokens for empty input, got %v", invalid)
	}
}

func TestParser_Parse_StrayCommasIgnored(t *testing.T) {
	parser := NewParser(logging.NopLogger)

	frames, invalid := parser.Parse("11,,25,")

	assertFrames(t, frames, []int{11, 25})
	if len(invalid) != 0 {
		t.Errorf("Expected stray commas to be ignored, got invalid tokens %v", invalid)
	}
}
