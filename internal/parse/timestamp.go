package parse

import (
	"strings"
	"time"
)

// SplitTimestamp peels the leading `M/D/YY H:MM:SSa` timestamp off a log
// line, returning the parsed time and the remaining message. The format has
// no leading zeros and a single a/p meridiem letter. Lines without a valid
// timestamp return ok=false with the whole line as the message.
func SplitTimestamp(line string) (time.Time, string, bool) {
	dateEnd := strings.IndexByte(line, ' ')
	if dateEnd < 0 {
		return time.Time{}, line, false
	}
	month, day, year, ok := parseDate(line[:dateEnd])
	if !ok {
		return time.Time{}, line, false
	}

	rest := line[dateEnd+1:]
	timeEnd := strings.IndexByte(rest, ' ')
	if timeEnd < 1 {
		return time.Time{}, line, false
	}
	clock := rest[:timeEnd]
	msg := rest[timeEnd+1:]

	meridiem := clock[len(clock)-1]
	hour, minute, second, ok := parseClock(clock[:len(clock)-1])
	if !ok {
		return time.Time{}, line, false
	}
	switch meridiem {
	case 'a':
		if hour == 12 {
			hour = 0
		}
	case 'p':
		if hour != 12 {
			hour += 12
		}
	default:
		return time.Time{}, line, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, line, false
	}

	ts := time.Date(2000+year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return ts, msg, true
}

func parseDate(s string) (month, day, year int, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	if month, ok = atoi(parts[0]); !ok {
		return 0, 0, 0, false
	}
	if day, ok = atoi(parts[1]); !ok {
		return 0, 0, 0, false
	}
	if year, ok = atoi(parts[2]); !ok {
		return 0, 0, 0, false
	}
	return month, day, year, true
}

func parseClock(s string) (hour, minute, second int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	if hour, ok = atoi(parts[0]); !ok {
		return 0, 0, 0, false
	}
	if minute, ok = atoi(parts[1]); !ok {
		return 0, 0, 0, false
	}
	if second, ok = atoi(parts[2]); !ok {
		return 0, 0, 0, false
	}
	return hour, minute, second, true
}

func atoi(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
