package sink

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/austindbirch/supportflow/internal/dispatch"
)

// Console renders dispatch events for a person watching the run
type Console struct {
	w            io.Writer
	showPayloads bool
}

func NewConsole(w io.Writer, showPayloads bool) *Console {
	return &Console{w: w, showPayloads: showPayloads}
}

func (c *Console) Handle(_ context.Context, ev dispatch.Event) {
	switch e := ev.(type) {
	case dispatch.PayloadBuilt:
		if !c.showPayloads {
			return
		}
		body, err := e.Payload.Indent()
		if err != nil {
			body = fmt.Sprintf("(unrenderable payload: %v)", err)
		}
		fmt.Fprintf(c.w, "📋 Ticket %s payload\n%s\n", e.Payload.ExternalID, body)

	case dispatch.DeliveryResult:
		switch {
		case e.Success:
			fmt.Fprintf(c.w, "✅ Ticket %s sent successfully (Status: %d)\n", e.ExternalID, e.StatusCode)
		case e.StatusCode > 0:
			fmt.Fprintf(c.w, "❌ Ticket %s rejected (Status: %d): %s\n", e.ExternalID, e.StatusCode, oneLine(e.Body, 160))
		default:
			fmt.Fprintf(c.w, "❌ Error sending ticket %s: %s\n", e.ExternalID, oneLine(e.Body, 160))
		}

	case dispatch.Progress:
		fmt.Fprintf(c.w, "   [%s] %d/%d\n", bar(e.Completed, e.Total, 20), e.Completed, e.Total)

	case dispatch.RunFinished:
		c.summary(e.Summary)
	}
}

func (c *Console) summary(s dispatch.Summary) {
	fmt.Fprintln(c.w, strings.Repeat("-", 40))
	if s.Cancelled {
		fmt.Fprintf(c.w, "⏹  Process cancelled after %d of %d tickets\n", s.Completed, s.Total)
	} else {
		fmt.Fprintln(c.w, "✅ Process completed")
	}
	fmt.Fprintln(c.w, "📊 Sending Summary")
	fmt.Fprintf(c.w, "  Run:                       %s\n", s.RunID)
	fmt.Fprintf(c.w, "  Successfully sent tickets: %d\n", s.SuccessCount)
	fmt.Fprintf(c.w, "  Failed tickets:            %d\n", s.FailureCount)
	fmt.Fprintf(c.w, "  Success rate:              %.1f%%\n", s.SuccessRate()*100)
	fmt.Fprintf(c.w, "  Duration:                  %s\n", s.Duration().Round(1e6))
	if len(s.StatusCodes) > 0 {
		codes := make([]int, 0, len(s.StatusCodes))
		for code := range s.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			parts = append(parts, fmt.Sprintf("%d×%d", code, s.StatusCodes[code]))
		}
		fmt.Fprintf(c.w, "  HTTP statuses:             %s\n", strings.Join(parts, " "))
	}

	switch {
	case s.AllSucceeded():
		fmt.Fprintln(c.w, "🎉 All tickets were sent successfully!")
	case s.FailureCount > 0:
		fmt.Fprintf(c.w, "⚠️  Sending completed with %d errors. Check details above.\n", s.FailureCount)
	}
}

func bar(done, total, width int) string {
	if total <= 0 {
		return strings.Repeat("#", width)
	}
	n := done * width / total
	return strings.Repeat("#", n) + strings.Repeat(".", width-n)
}

// oneLine collapses whitespace so a response body fits on one console line
func oneLine(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
