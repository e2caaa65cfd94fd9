package application_test

import (
	"strconv"
	"time"
)

func itoa(v int) string { return strconv.Itoa(v) }

func time24h(days int) time.Duration { return time.Duration(days) * 24 * time.Hour }
