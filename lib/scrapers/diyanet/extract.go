package diyanet

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// The extractors below run over the raw token stream instead of a parsed
// document: only tag names, one class attribute, one value attribute and
// text nodes are ever inspected, so building a DOM would be wasted work.

func attrValue(attrs []html.Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

type option struct {
	label string
	idx   int
}

// extractOptions collects the (label, value) pairs of every <option>
// inside a <select> whose class attribute contains identifier.
// Labels are case-folded; the result is sorted ascending by value, not
// in document order. A matching <select> with no options yields nothing.
func extractOptions(page, identifier string) []option {
	z := html.NewTokenizer(strings.NewReader(page))

	var options []option
	recording := false
	lastTag := ""

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input: report whatever was found
			return options

		case html.StartTagToken:
			tok := z.Token()
			lastTag = tok.Data
			switch tok.Data {
			case "select":
				class, ok := attrValue(tok.Attr, "class")
				if ok && strings.Contains(class, identifier) {
					recording = true
				}
			case "option":
				if !recording {
					continue
				}
				value, _ := attrValue(tok.Attr, "value")
				idx, err := strconv.Atoi(value)
				if err != nil {
					continue
				}
				options = append(options, option{idx: idx})
			}

		case html.TextToken:
			if !recording || lastTag != "option" || len(options) == 0 {
				continue
			}
			if last := &options[len(options)-1]; last.label == "" {
				last.label = strings.ToLower(string(z.Text()))
			}

		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "select" && recording {
				recording = false
				sort.Slice(options, func(i, j int) bool {
					return options[i].idx < options[j].idx
				})
			}
		}
	}
}

type recordState int

const (
	recordNone recordState = iota
	recordName
	recordValue
)

type timeEntry struct {
	label  string
	value  string
	filled bool
}

// extractPrayerTimes walks the repeating
//
//	<div class="tpt-title">label</div><div class="tpt-time">HH:MM</div>
//
// pattern on a region page and returns (label, raw value) pairs in
// document order. The want-name/want-value signal only survives until the
// next closing tag. A repeated title starts a fresh record; a repeated
// value drops the record it would have overwritten, since a malformed
// record is worse than a missing one.
func extractPrayerTimes(page string) []timeEntry {
	z := html.NewTokenizer(strings.NewReader(page))

	var entries []timeEntry
	state := recordNone

	for {
		switch z.Next() {
		case html.ErrorToken:
			return entries

		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != "div" {
				continue
			}
			class, _ := attrValue(tok.Attr, "class")
			switch class {
			case "tpt-title":
				state = recordName
			case "tpt-time":
				state = recordValue
			}

		case html.TextToken:
			if state == recordNone {
				continue
			}
			text := string(z.Text())
			last := len(entries) - 1
			switch {
			case state == recordName && (last < 0 || entries[last].filled):
				entries = append(entries, timeEntry{label: strings.TrimSpace(text)})
			case state == recordValue && last >= 0 && !entries[last].filled:
				entries[last].value = text
				entries[last].filled = true
			case last >= 0:
				entries = entries[:last]
			}

		case html.EndTagToken:
			state = recordNone
		}
	}
}
