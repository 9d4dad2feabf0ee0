package vdaparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// pad fills a record with spaces up to RecordLength.
func pad(s string) string {
	if len(s) > RecordLength {
		panic(fmt.Sprintf("record longer than %d: %d", RecordLength, len(s)))
	}
	return s + strings.Repeat(" ", RecordLength-len(s))
}

func rec511(kunde, lieferant string) string {
	return pad(fmt.Sprintf("51101%-9s%-9s", kunde, lieferant))
}

func rec512(werk string, neu, alt uint64, sachnummer string) string {
	return pad(fmt.Sprintf("51201%-3s%09d%06d%09d%06d%-22s%-22s%010d%-5s%-4s%-2s",
		werk, neu, 240115, alt, 240108, sachnummer, "LIEF-4711", 4500012345, "AB01", "ZK1", "ST"))
}

// abrufe returns n call-offs starting at the given date, amounts 100, 200, ...
func abrufe(date uint64, n int) []types.Abruf {
	out := make([]types.Abruf, n)
	for i := range out {
		out[i] = types.Abruf{Date: date + uint64(i), Amount: uint64(i+1) * 100}
	}
	return out
}

func abrufSpan(list []types.Abruf) string {
	var b strings.Builder
	for _, a := range list {
		fmt.Fprintf(&b, "%06d%09d", a.Date, a.Amount)
	}
	return b.String()
}

// raw513 builds a 513 without padding so that short repeats stay short.
func raw513(list []types.Abruf) string {
	return "51301" + strings.Repeat("0", 43) + abrufSpan(list) + "     "
}

func rec513(date uint64) string {
	return raw513(abrufe(date, 5))
}

func raw514(list []types.Abruf) string {
	return "51401" + abrufSpan(list) + "   "
}

func rec514(date uint64) string {
	return raw514(abrufe(date, 8))
}

func bare(code string) string {
	return pad(code + "01")
}

// doc joins records into a document with a trailing newline.
func doc(records ...string) string {
	return strings.Join(records, "\n") + "\n"
}

// minimalDoc is Satz511 + Satz512 + Satz513 + Satz519.
func minimalDoc() string {
	return doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 124, 123, "A 123 456 78 90"),
		rec513(240201),
		bare("519"),
	)
}
